package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/agnivade/levenshtein"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/term"

	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

// promptSecret prompts for hidden input (PIN or password). The caller
// is responsible for zeroing the returned bytes after use.
func promptSecret(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return secret, nil
}

// promptNewSecret prompts for a new secret with confirmation.
func promptNewSecret(label string) ([]byte, error) {
	secret, err := promptSecret(fmt.Sprintf("Enter %s: ", label))
	if err != nil {
		return nil, err
	}

	confirm, err := promptSecret(fmt.Sprintf("Confirm %s: ", label))
	if err != nil {
		return nil, err
	}
	defer zeroBytes(confirm)

	if string(secret) != string(confirm) {
		zeroBytes(secret)
		return nil, sigilerr.WithSuggestion(sigilerr.New("INVALID_INPUT", "input mismatch"), fmt.Sprintf("the two %s entries did not match", label))
	}
	return secret, nil
}

// promptMnemonic reads a whitespace-separated mnemonic from stdin, and
// for any unrecognised word, suggests the closest BIP-39 wordlist entry
// by Levenshtein distance — a typo a user is far more likely to make
// than to type a word that doesn't exist on the list at all.
func promptMnemonic() (string, error) {
	fmt.Fprintln(os.Stderr, "Enter your recovery phrase (12 or 24 words, space separated):")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading mnemonic: %w", err)
	}

	words := strings.Fields(line)
	if suggestion, ok := suggestCorrection(words); ok {
		return "", sigilerr.WithSuggestion(sigilerr.New("INVALID_INPUT", "unrecognised word in recovery phrase"), suggestion)
	}
	return strings.Join(words, " "), nil
}

// suggestCorrection finds the first word not on the BIP-39 English
// wordlist and returns a human-readable "did you mean" message naming
// the closest match by edit distance, or ok=false if every word is
// already valid (or the closest match is too far to be a plausible typo).
func suggestCorrection(words []string) (string, bool) {
	wordlist := bip39.GetWordList()
	valid := make(map[string]bool, len(wordlist))
	for _, w := range wordlist {
		valid[w] = true
	}

	const maxPlausibleDistance = 3

	for i, word := range words {
		if valid[word] {
			continue
		}

		best := ""
		bestDist := maxPlausibleDistance + 1
		for _, candidate := range wordlist {
			d := levenshtein.ComputeDistance(word, candidate)
			if d < bestDist {
				bestDist = d
				best = candidate
			}
		}

		if best == "" || bestDist > maxPlausibleDistance {
			return fmt.Sprintf("word %d (%q) is not a BIP-39 word and no close match was found", i+1, word), true
		}
		return fmt.Sprintf("word %d (%q) is not a BIP-39 word — did you mean %q?", i+1, word, best), true
	}
	return "", false
}

// zeroBytes overwrites b with zeros in place.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
