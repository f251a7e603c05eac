// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Barrier is an access barrier detected from fetched content.
type Barrier string

const (
	Paywall       Barrier = "Paywall"
	LoginRequired Barrier = "LoginRequired"
	PreviewOnly   Barrier = "PreviewOnly"
	Soft404       Barrier = "Soft404"
)

// ContentMatch reports whether fetched text matches the reference.
type ContentMatch struct {
	Matched    bool    `json:"matched" yaml:"matched"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// ValidationResult is the outcome of deep validation for one URL.
type ValidationResult struct {
	URL          string       `json:"url" yaml:"url"`
	Accessible   bool         `json:"accessible" yaml:"accessible"`
	Score        int          `json:"score" yaml:"score"`
	Reason       string       `json:"reason" yaml:"reason"`
	Barriers     []Barrier    `json:"barriers,omitempty" yaml:"barriers,omitempty"`
	ContentMatch ContentMatch `json:"content_match" yaml:"content_match"`

	// StatusCode is the final HTTP status, 0 when the fetch failed.
	StatusCode int `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	// FinalURL is the URL after redirects.
	FinalURL string `json:"final_url,omitempty" yaml:"final_url,omitempty"`
}

// HasBarrier reports whether b was detected.
func (v ValidationResult) HasBarrier(b Barrier) bool {
	for _, x := range v.Barriers {
		if x == b {
			return true
		}
	}
	return false
}

// Failed builds the result recorded for a URL that could not be checked.
func Failed(url, reason string) ValidationResult {
	return ValidationResult{URL: url, Accessible: false, Score: 0, Reason: reason}
}

// Validated pairs a scored candidate with its validation result.
type Validated struct {
	Candidate  Candidate        `json:"candidate" yaml:"candidate"`
	Validation ValidationResult `json:"validation" yaml:"validation"`
}
