package config_test

import (
	"encoding/json"
	"testing"

	"github.com/jkindrix/blood/internal/config"
	"github.com/jkindrix/blood/testutil"
)

// TestDefaultMatchesGolden pins Default()'s shape down with a golden
// fixture instead of a field-by-field assertion, so adding a field to
// Config without updating its default shows up as a diff here.
func TestDefaultMatchesGolden(t *testing.T) {
	data, err := json.Marshal(config.Default())
	if err != nil {
		t.Fatalf("marshaling default config: %v", err)
	}
	testutil.AssertGoldenJSON(t, "config", "default", data)
}
