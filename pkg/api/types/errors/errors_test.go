package errors_test

import (
	"encoding/json"
	"strings"
	"testing"

	apierr "github.com/weft-dev/weft/pkg/api/types/errors"
)

func TestErrorMessageUnmarshal(t *testing.T) {
	t.Run("a full envelope parses", func(t *testing.T) {
		var parsed apierr.ErrorMessage
		if err := json.Unmarshal(
			[]byte(`{"reason":"workflow is rejected","advice":"fix the manifest","see":"https://docs.example"}`),
			&parsed,
		); err != nil {
			t.Fatal(err)
		}

		expected := apierr.ErrorMessage{
			Reason: "workflow is rejected",
			Advice: "fix the manifest",
			See:    "https://docs.example",
		}
		if parsed != expected {
			t.Errorf("did not match: (actual, expected) = (%+v, %+v)", parsed, expected)
		}
	})

	t.Run("reason alone is enough", func(t *testing.T) {
		var parsed apierr.ErrorMessage
		if err := json.Unmarshal([]byte(`{"reason":"not found"}`), &parsed); err != nil {
			t.Fatal(err)
		}
		if parsed.Reason != "not found" {
			t.Errorf("reason did not match: %s", parsed.Reason)
		}
	})

	for name, body := range map[string]string{
		"reason is missing":      `{"advice":"try again"}`,
		"reason is null":         `{"reason":null}`,
		"reason is not a string": `{"reason":42}`,
	} {
		t.Run("invalid envelope: "+name, func(t *testing.T) {
			var parsed apierr.ErrorMessage
			if err := json.Unmarshal([]byte(body), &parsed); err == nil {
				t.Error("expected error does not occured")
			}
		})
	}
}

func TestErrorMessageString(t *testing.T) {
	t.Run("advice follows the reason", func(t *testing.T) {
		testee := apierr.ErrorMessage{Reason: "rejected", Advice: "fix the manifest"}
		rendered := testee.String()

		if !strings.Contains(rendered, "rejected") || !strings.Contains(rendered, "fix the manifest") {
			t.Errorf("rendering dropped content: %s", rendered)
		}
	})

	t.Run("without advice, only the reason is rendered", func(t *testing.T) {
		testee := apierr.ErrorMessage{Reason: "rejected"}
		if testee.String() != "rejected" {
			t.Errorf("rendering did not match: %s", testee.String())
		}
	})
}
