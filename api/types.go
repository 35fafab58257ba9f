package api

import (
	"fmt"

	"github.com/jmorganca/subword/tokenizer"
)

// StatusError is an error with an HTTP status code and message,
// it is parsed on the client-side and not returned from the API
type StatusError struct {
	StatusCode   int    // e.g. 200
	Status       string // e.g. "200 OK"
	ErrorMessage string `json:"error"`
}

func (e StatusError) Error() string {
	switch {
	case e.Status != "" && e.ErrorMessage != "":
		return fmt.Sprintf("%s: %s", e.Status, e.ErrorMessage)
	case e.Status != "":
		return e.Status
	case e.ErrorMessage != "":
		return e.ErrorMessage
	default:
		// this should not happen
		return "something went wrong, please see the subword server logs for details"
	}
}

// Merge is one learned rule on the wire, encoded as ["left","right"].
type Merge [2]string

func MergesFrom(merges tokenizer.Merges) []Merge {
	out := make([]Merge, len(merges))
	for i, pair := range merges {
		out[i] = Merge{pair.Left, pair.Right}
	}
	return out
}

func ToMerges(merges []Merge) tokenizer.Merges {
	out := make(tokenizer.Merges, len(merges))
	for i, m := range merges {
		out[i] = tokenizer.Pair{Left: m[0], Right: m[1]}
	}
	return out
}

type TrainRequest struct {
	Text   string `json:"text"`
	Rounds *int   `json:"rounds,omitempty"`
	Marker string `json:"marker,omitempty"`

	// Stream reports every round before the final response. Defaults to true.
	Stream *bool `json:"stream,omitempty"`
}

// TrainResponse is sent once per round while streaming and once more with
// Done set when training finishes.
type TrainResponse struct {
	// ID identifies the training run in every response and in server logs.
	ID string `json:"id,omitempty"`

	Round  int    `json:"round,omitempty"`
	Pair   *Merge `json:"pair,omitempty"`
	Count  int    `json:"count,omitempty"`
	Tokens int    `json:"tokens,omitempty"`
	Vocab  int    `json:"vocab,omitempty"`

	Done   bool    `json:"done"`
	Marker string  `json:"marker,omitempty"`
	Merges []Merge `json:"merges,omitempty"`
}

type SegmentRequest struct {
	Words []string `json:"words,omitempty"`
	Text  string   `json:"text,omitempty"`
}

type SegmentResponse struct {
	Segments [][]string `json:"segments"`
}

type MergesResponse struct {
	Marker string  `json:"marker"`
	Merges []Merge `json:"merges"`
}
