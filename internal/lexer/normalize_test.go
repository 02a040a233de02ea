package lexer

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"golang.org/x/text/unicode/norm"

	"github.com/jkindrix/blood/internal/diag"
	"github.com/jkindrix/blood/internal/source"
)

// TestBOMStripping verifies that UTF-8 BOM is removed.
func TestBOMStripping(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected []byte
	}{
		{
			name:     "with_bom",
			input:    []byte{0xEF, 0xBB, 0xBF, 'h', 'e', 'l', 'l', 'o'},
			expected: []byte("hello"),
		},
		{
			name:     "without_bom",
			input:    []byte("hello"),
			expected: []byte("hello"),
		},
		{
			name:     "empty_with_bom",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: []byte{},
		},
		{
			name:     "empty_without_bom",
			input:    []byte{},
			expected: []byte{},
		},
		{
			name:     "partial_bom",
			input:    []byte{0xEF, 0xBB, 'h', 'i'},
			expected: []byte{0xEF, 0xBB, 'h', 'i'}, // not a valid BOM
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Normalize(tt.input)
			if !bytes.Equal(result, tt.expected) {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

// nfcCafe and nfdCafe spell "cafe" + e-with-acute in NFC and NFD form
// respectively; both must normalize to the same NFC byte sequence.
var (
	nfcCafe = "caf\u00e9"     // precomposed e-acute
	nfdCafe = "cafe\u0301"   // e + combining acute accent
)

// TestNFCNormalization verifies Unicode normalization.
func TestNFCNormalization(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "already_nfc", input: nfcCafe, expected: nfcCafe},
		{name: "nfd_to_nfc", input: nfdCafe, expected: nfcCafe},
		{name: "ascii_unchanged", input: "hello world", expected: "hello world"},
		{name: "mixed_unicode", input: "na\u00efve " + nfcCafe, expected: "na\u00efve " + nfcCafe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := string(Normalize([]byte(tt.input)))
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}

			if !norm.NFC.IsNormalString(result) {
				t.Errorf("Result is not in NFC form")
			}
		})
	}
}

// TestBOMAndNFC verifies both BOM stripping and NFC normalization together.
func TestBOMAndNFC(t *testing.T) {
	input := append(append([]byte{}, bomUTF8...), []byte(nfdCafe)...)

	result := string(Normalize(input))
	if result != nfcCafe {
		t.Errorf("Expected %q, got %q", nfcCafe, result)
	}

	if !norm.NFC.IsNormalString(result) {
		t.Errorf("Result is not in NFC form")
	}
}

// TestNormalizeIdempotent verifies that normalizing twice has no effect.
func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"hello",
		nfcCafe,
		nfdCafe,
		"﻿hello",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			first := Normalize([]byte(input))
			second := Normalize(first)

			if !bytes.Equal(first, second) {
				t.Errorf("Normalize is not idempotent: first=%q, second=%q", first, second)
			}
		})
	}
}

// tokenKinds lexes src and returns the resulting token kinds, dropping
// spans so only the token shape is compared.
func tokenKinds(t *testing.T, src string) []Kind {
	t.Helper()
	srcs := source.NewMap()
	file := srcs.AddFile("test.blood", src)
	diags := diag.NewContext(srcs, 64)
	toks := New(src, file, srcs, diags).Tokens()
	kinds := make([]Kind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	return kinds
}

// TestCanaryDeterministicParsing ensures lexically equivalent source
// produces identical token kinds regardless of encoding variations
// (LF vs CRLF, NFC vs NFD, with/without BOM).
func TestCanaryDeterministicParsing(t *testing.T) {
	variants := []struct {
		name  string
		input string
	}{
		{name: "lf_nfc", input: "let " + nfcCafe + " = 42\n"},
		{name: "crlf_nfc", input: "let " + nfcCafe + " = 42\n"},
		{name: "lf_nfd", input: "let " + nfdCafe + " = 42\n"},
		{name: "crlf_nfd", input: "let " + nfdCafe + " = 42\n"},
		{name: "bom_lf_nfc", input: "﻿let " + nfcCafe + " = 42\n"},
	}

	variants[1].input = strings.ReplaceAll(variants[1].input, "\n", "\r\n")
	variants[3].input = strings.ReplaceAll(variants[3].input, "\n", "\r\n")

	var outputs []string
	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			normalized := string(Normalize([]byte(v.input)))
			kinds := tokenKinds(t, normalized)
			jsonData, err := json.Marshal(kinds)
			if err != nil {
				t.Fatalf("Failed to marshal token kinds: %v", err)
			}
			outputs = append(outputs, string(jsonData))
		})
	}

	if len(outputs) < 2 {
		t.Fatal("Not enough outputs to compare")
	}

	baseline := outputs[0]
	for i, output := range outputs[1:] {
		if output != baseline {
			t.Errorf("Variant %d produced different output than baseline", i+1)
			t.Logf("Baseline: %s", baseline)
			t.Logf("Variant %d: %s", i+1, output)
		}
	}
}

// TestNormalizePreservesSemantics verifies normalization doesn't change the
// token stream, just its encoding.
func TestNormalizePreservesSemantics(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "let_binding", input: "let x = 5"},
		{name: "unicode_identifier", input: "let " + nfcCafe + " = 42"},
		{name: "string_literal", input: `"hello world"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens1 := tokenKinds(t, tt.input)
			tokens2 := tokenKinds(t, string(Normalize([]byte(tt.input))))

			if len(tokens1) != len(tokens2) {
				t.Errorf("Token count mismatch: %d vs %d", len(tokens1), len(tokens2))
			}
			for i := range tokens1 {
				if i >= len(tokens2) {
					break
				}
				if tokens1[i] != tokens2[i] {
					t.Errorf("Token %d kind mismatch: %v vs %v", i, tokens1[i], tokens2[i])
				}
			}
		})
	}
}

// TestNormalizeDeterminism verifies Normalize() produces stable output.
func TestNormalizeDeterminism(t *testing.T) {
	input := append(append([]byte{}, bomUTF8...), []byte(nfdCafe)...)

	var results [][]byte
	for i := 0; i < 100; i++ {
		results = append(results, Normalize(input))
	}

	baseline := results[0]
	for i, result := range results[1:] {
		if !bytes.Equal(result, baseline) {
			t.Errorf("Iteration %d produced different output", i+1)
		}
	}
}
