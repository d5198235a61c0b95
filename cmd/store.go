package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/openings-cli/internal/classify"
	"github.com/sells-group/openings-cli/internal/scorer"
	"github.com/sells-group/openings-cli/internal/store"
)

// openStore opens the configured backend and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// buildClassifier assembles the classifier, overlaying the keywords
// file when configured.
func buildClassifier() (*classify.Classifier, error) {
	ccfg := classify.DefaultConfig()
	if cfg.Classify.KeywordsFile != "" {
		var err error
		ccfg, err = classify.LoadKeywords(ccfg, cfg.Classify.KeywordsFile)
		if err != nil {
			return nil, err
		}
	}
	return classify.New(ccfg), nil
}

// buildScorer validates the configured weights and returns a scorer.
func buildScorer() (*scorer.Scorer, error) {
	if err := scorer.ValidateConfig(cfg.Scorer); err != nil {
		return nil, err
	}
	return scorer.New(cfg.Scorer), nil
}
