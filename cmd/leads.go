package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/openings-cli/internal/model"
	"github.com/sells-group/openings-cli/internal/store"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Track outreach on venues through the sales pipeline",
}

var leadsContactedCmd = &cobra.Command{
	Use:   "contacted <venue-id>",
	Short: "Mark a venue contacted and schedule the next follow-up",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		notes, _ := cmd.Flags().GetString("notes")
		followUpDays, _ := cmd.Flags().GetInt("follow-up-days")
		return withLead(cmd, args, func(ctx context.Context, st store.Store, id int64) error {
			followUp := time.Now().UTC().AddDate(0, 0, followUpDays).Format("2006-01-02")
			if err := st.UpdateLeadStatus(ctx, id, store.LeadUpdate{
				Status:       model.LeadContacted,
				NextFollowUp: followUp,
			}); err != nil {
				return err
			}
			if _, err := st.AddLeadActivity(ctx, model.LeadActivity{
				VenueID:        id,
				ActivityType:   model.ActivityCall,
				Notes:          notes,
				NextActionDate: followUp,
			}); err != nil {
				return err
			}
			fmt.Printf("Venue %d marked contacted, follow-up %s\n", id, followUp)
			return nil
		})
	},
}

var leadsDemoCmd = &cobra.Command{
	Use:   "demo <venue-id>",
	Short: "Schedule a demo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		notes, _ := cmd.Flags().GetString("notes")
		if err := validDate(date); err != nil {
			return err
		}
		return withLead(cmd, args, func(ctx context.Context, st store.Store, id int64) error {
			if err := st.UpdateLeadStatus(ctx, id, store.LeadUpdate{
				Status:       model.LeadDemoScheduled,
				NextFollowUp: date,
			}); err != nil {
				return err
			}
			if _, err := st.AddLeadActivity(ctx, model.LeadActivity{
				VenueID:        id,
				ActivityType:   model.ActivityDemo,
				Notes:          notes,
				Outcome:        model.OutcomeDemoBooked,
				NextActionDate: date,
			}); err != nil {
				return err
			}
			fmt.Printf("Venue %d demo scheduled for %s\n", id, date)
			return nil
		})
	},
}

var leadsWonCmd = &cobra.Command{
	Use:   "won <venue-id>",
	Short: "Mark a lead won",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		notes, _ := cmd.Flags().GetString("notes")
		return withLead(cmd, args, func(ctx context.Context, st store.Store, id int64) error {
			if err := st.UpdateLeadStatus(ctx, id, store.LeadUpdate{Status: model.LeadWon}); err != nil {
				return err
			}
			if _, err := st.AddLeadActivity(ctx, model.LeadActivity{
				VenueID:      id,
				ActivityType: model.ActivityNote,
				Notes:        notes,
				Outcome:      model.OutcomeInterested,
			}); err != nil {
				return err
			}
			fmt.Printf("Venue %d marked won\n", id)
			return nil
		})
	},
}

var leadsLostCmd = &cobra.Command{
	Use:   "lost <venue-id>",
	Short: "Mark a lead lost",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		competitor, _ := cmd.Flags().GetString("competitor")
		return withLead(cmd, args, func(ctx context.Context, st store.Store, id int64) error {
			if err := st.UpdateLeadStatus(ctx, id, store.LeadUpdate{
				Status:     model.LeadLost,
				Competitor: competitor,
				LostReason: reason,
			}); err != nil {
				return err
			}
			if _, err := st.AddLeadActivity(ctx, model.LeadActivity{
				VenueID:      id,
				ActivityType: model.ActivityNote,
				Notes:        reason,
				Outcome:      model.OutcomeNotInterested,
			}); err != nil {
				return err
			}
			fmt.Printf("Venue %d marked lost\n", id)
			return nil
		})
	},
}

var leadsNotInterestedCmd = &cobra.Command{
	Use:   "not-interested <venue-id>",
	Short: "Mark a lead not interested",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		return withLead(cmd, args, func(ctx context.Context, st store.Store, id int64) error {
			if err := st.UpdateLeadStatus(ctx, id, store.LeadUpdate{
				Status:     model.LeadNotInterested,
				LostReason: reason,
			}); err != nil {
				return err
			}
			if _, err := st.AddLeadActivity(ctx, model.LeadActivity{
				VenueID:      id,
				ActivityType: model.ActivityNote,
				Notes:        reason,
				Outcome:      model.OutcomeNotInterested,
			}); err != nil {
				return err
			}
			fmt.Printf("Venue %d marked not interested\n", id)
			return nil
		})
	},
}

var leadsLogCallCmd = &cobra.Command{
	Use:   "log-call <venue-id>",
	Short: "Log a call without changing the pipeline state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		notes, _ := cmd.Flags().GetString("notes")
		outcome, _ := cmd.Flags().GetString("outcome")
		nextAction, _ := cmd.Flags().GetString("next-action")
		if nextAction != "" {
			if err := validDate(nextAction); err != nil {
				return err
			}
		}
		return withLead(cmd, args, func(ctx context.Context, st store.Store, id int64) error {
			if _, err := st.AddLeadActivity(ctx, model.LeadActivity{
				VenueID:        id,
				ActivityType:   model.ActivityCall,
				Notes:          notes,
				Outcome:        outcome,
				NextActionDate: nextAction,
			}); err != nil {
				return err
			}
			if nextAction != "" {
				if err := st.UpdateFollowUp(ctx, id, nextAction); err != nil {
					return err
				}
			}
			fmt.Printf("Call logged for venue %d\n", id)
			return nil
		})
	},
}

var leadsFollowupCmd = &cobra.Command{
	Use:   "followup <venue-id>",
	Short: "Set the next follow-up date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		if err := validDate(date); err != nil {
			return err
		}
		return withLead(cmd, args, func(ctx context.Context, st store.Store, id int64) error {
			if err := st.UpdateFollowUp(ctx, id, date); err != nil {
				return err
			}
			fmt.Printf("Venue %d follow-up set to %s\n", id, date)
			return nil
		})
	},
}

var leadsNoteCmd = &cobra.Command{
	Use:   "note <venue-id> <text>...",
	Short: "Replace the venue's notes",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLead(cmd, args, func(ctx context.Context, st store.Store, id int64) error {
			notes := strings.Join(args[1:], " ")
			if err := st.UpdateNotes(ctx, id, notes); err != nil {
				return err
			}
			fmt.Printf("Venue %d notes updated\n", id)
			return nil
		})
	},
}

var leadsActivitiesCmd = &cobra.Command{
	Use:   "activities <venue-id>",
	Short: "Show the outreach log for a venue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLead(cmd, args, func(ctx context.Context, st store.Store, id int64) error {
			activities, err := st.ListLeadActivities(ctx, id)
			if err != nil {
				return err
			}
			if len(activities) == 0 {
				fmt.Println("No activity.")
				return nil
			}
			for _, a := range activities {
				line := fmt.Sprintf("%s  %-6s", a.ActivityDate, a.ActivityType)
				if a.Outcome != "" {
					line += "  [" + a.Outcome + "]"
				}
				if a.Notes != "" {
					line += "  " + a.Notes
				}
				if a.NextActionDate != "" {
					line += "  (next: " + a.NextActionDate + ")"
				}
				fmt.Println(line)
			}
			return nil
		})
	},
}

func init() {
	leadsContactedCmd.Flags().String("notes", "", "call notes")
	leadsContactedCmd.Flags().Int("follow-up-days", 3, "days until the next follow-up")

	leadsDemoCmd.Flags().String("date", "", "demo date (YYYY-MM-DD)")
	leadsDemoCmd.Flags().String("notes", "", "notes")
	_ = leadsDemoCmd.MarkFlagRequired("date")

	leadsWonCmd.Flags().String("notes", "", "notes")

	leadsLostCmd.Flags().String("reason", "", "why the lead was lost")
	leadsLostCmd.Flags().String("competitor", "", "competitor they chose")

	leadsNotInterestedCmd.Flags().String("reason", "", "why they passed")

	leadsLogCallCmd.Flags().String("notes", "", "call notes")
	leadsLogCallCmd.Flags().String("outcome", "", "call outcome (no_answer, callback, interested...)")
	leadsLogCallCmd.Flags().String("next-action", "", "next action date (YYYY-MM-DD)")

	leadsFollowupCmd.Flags().String("date", "", "follow-up date (YYYY-MM-DD)")
	_ = leadsFollowupCmd.MarkFlagRequired("date")

	leadsCmd.AddCommand(
		leadsContactedCmd, leadsDemoCmd, leadsWonCmd, leadsLostCmd,
		leadsNotInterestedCmd, leadsLogCallCmd, leadsFollowupCmd,
		leadsNoteCmd, leadsActivitiesCmd,
	)
	rootCmd.AddCommand(leadsCmd)
}

// withLead opens the store, parses the venue ID argument, and runs fn.
func withLead(cmd *cobra.Command, args []string, fn func(context.Context, store.Store, int64) error) error {
	ctx := cmd.Context()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return eris.Errorf("leads: invalid venue id %q", args[0])
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	return fn(ctx, st, id)
}

func validDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return eris.Errorf("invalid date %q (want YYYY-MM-DD)", date)
	}
	return nil
}
