package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Joe's Bar & Grill LLC", "joes grill"},
		{"JOE'S BAR AND GRILL, LLC", "joes and grill"},
		{"The Pizza Company", "the pizza"},
		{"Blue Agave Restaurant Inc.", "blue agave"},
		{"Lone Star Corp", "lone star"},
		{"   ", ""},
		{"", ""},
		{"LLC", ""},
		{"Café München", "caf mnchen"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Name(tt.in), "Name(%q)", tt.in)
	}
}

func TestName_Idempotent(t *testing.T) {
	for _, in := range []string{"Joe's Bar & Grill LLC", "The Dive", "B-52 Lounge #2"} {
		once := Name(in)
		assert.Equal(t, once, Name(once))
	}
}

func TestAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"123 Main St", "123 main street"},
		{"123 MAIN STREET", "123 main street"},
		{"456 Oak Ave.", "456 oak avenue"},
		{"789 Elm Blvd Ste 200", "789 elm boulevard suite 200"},
		{"10 Cedar Dr", "10 cedar drive"},
		{"1 Pkwy Pl", "1 parkway pl"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Address(tt.in), "Address(%q)", tt.in)
	}
}

func TestAddress_TokenBoundaries(t *testing.T) {
	// "st" expands only as a whole token, never inside a word.
	assert.Equal(t, "9 stone street", Address("9 Stone St"))
	assert.Equal(t, "2 strand", Address("2 Strand"))
}

func TestCity(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"DALLAS", "Dallas"},
		{"fort worth", "Fort Worth"},
		{"Highland Park", "Highland Park"},
		{"CITY OF THE COLONY", "City of the Colony"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, City(tt.in), "City(%q)", tt.in)
	}
}

func TestIdentityExamples(t *testing.T) {
	// Two observations of the same venue from different feeds must
	// produce identical identity triples.
	assert.Equal(t, Name("JOE'S BAR & GRILL LLC"), Name("Joe's Bar & Grill"))
	assert.Equal(t, Address("123 MAIN STREET"), Address("123 Main St"))
}
