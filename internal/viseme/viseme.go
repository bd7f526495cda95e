// Package viseme defines the closed set of mouth shapes a character can show.
package viseme

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Label identifies one mouth-shape category.
type Label int

const (
	Closed    Label = iota // M: closed / silent
	SmallOpen              // E: small open, side stretch
	MidOpen                // A: mid open
	WideOpen               // O: big open, rounded
	U                      // U
	FV                     // F_V
	TH                     // T_H
	L                      // L
	Rounded                // W_Q
	Consonant              // C_D_G_K_N_R_S_T

	numLabels
)

var names = [numLabels]string{
	Closed:    "M",
	SmallOpen: "E",
	MidOpen:   "A",
	WideOpen:  "O",
	U:         "U",
	FV:        "F_V",
	TH:        "T_H",
	L:         "L",
	Rounded:   "W_Q",
	Consonant: "C_D_G_K_N_R_S_T",
}

// All returns every label in declaration order.
func All() []Label {
	out := make([]Label, 0, numLabels)
	for l := Label(0); l < numLabels; l++ {
		out = append(out, l)
	}
	return out
}

// Valid reports whether l is one of the declared labels.
func (l Label) Valid() bool {
	return l >= 0 && l < numLabels
}

// String returns the asset name of the label, e.g. "M" or "F_V".
func (l Label) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Label(%d)", int(l))
	}
	return names[l]
}

// Parse resolves an asset name (case-insensitive) to its label.
func Parse(s string) (Label, error) {
	for l := Label(0); l < numLabels; l++ {
		if strings.EqualFold(names[l], strings.TrimSpace(s)) {
			return l, nil
		}
	}
	return 0, fmt.Errorf("viseme: unknown label %q", s)
}

func (l Label) MarshalYAML() (interface{}, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("viseme: cannot marshal %v", l)
	}
	return l.String(), nil
}

func (l *Label) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Set is a bitmask of labels, used to describe which shapes have assets.
type Set uint32

// NewSet builds a set from the given labels.
func NewSet(labels ...Label) Set {
	var s Set
	for _, l := range labels {
		s = s.With(l)
	}
	return s
}

func (s Set) With(l Label) Set {
	if !l.Valid() {
		return s
	}
	return s | 1<<uint(l)
}

func (s Set) Has(l Label) bool {
	return l.Valid() && s&(1<<uint(l)) != 0
}

// Labels lists the members of s in declaration order.
func (s Set) Labels() []Label {
	var out []Label
	for _, l := range All() {
		if s.Has(l) {
			out = append(out, l)
		}
	}
	return out
}

// WideChain is the preference order for the loudest energy band. The chain
// is total: MidOpen is used when no earlier label is available.
var WideChain = []Label{WideOpen, Rounded}

// ResolveWide picks the label for the loudest band given the available assets.
func ResolveWide(available Set) Label {
	for _, l := range WideChain {
		if available.Has(l) {
			return l
		}
	}
	return MidOpen
}
