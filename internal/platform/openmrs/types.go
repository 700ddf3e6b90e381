package openmrs

import (
	"fmt"
	"strings"
	"time"
)

// ConceptClass categorizes a concept (e.g. "LabSet", "Test", "Procedure").
type ConceptClass struct {
	UUID    string `json:"uuid,omitempty"`
	Display string `json:"display"`
}

// ConceptDatatype describes the value type of a concept.
type ConceptDatatype struct {
	UUID    string `json:"uuid,omitempty"`
	Display string `json:"display"`
}

// ConceptName is the structured name record attached to a concept.
type ConceptName struct {
	Name    string `json:"name"`
	Display string `json:"display"`
}

// SetMember is a membership reference inside a concept set. Only the
// uuid and retired flag are guaranteed by the full representation.
type SetMember struct {
	UUID    string `json:"uuid"`
	Retired bool   `json:"retired"`
}

// Concept is a node in the OpenMRS concept dictionary. Set=true marks a
// grouping (panel) that owns SetMembers; membership may nest arbitrarily.
type Concept struct {
	UUID         string           `json:"uuid"`
	Display      string           `json:"display"`
	Name         *ConceptName     `json:"name,omitempty"`
	ConceptClass *ConceptClass    `json:"conceptClass,omitempty"`
	Datatype     *ConceptDatatype `json:"datatype,omitempty"`
	Set          bool             `json:"set"`
	Retired      bool             `json:"retired"`
	SetMembers   []SetMember      `json:"setMembers,omitempty"`
}

// ClassDisplay returns the concept class display, or "" when absent.
func (c *Concept) ClassDisplay() string {
	if c.ConceptClass == nil {
		return ""
	}
	return c.ConceptClass.Display
}

// PreferredName resolves a usable display name for the concept.
// Fallback chain: structured name, top-level display, structured display.
func (c *Concept) PreferredName() string {
	if c.Name != nil && c.Name.Name != "" {
		return c.Name.Name
	}
	if c.Display != "" {
		return c.Display
	}
	if c.Name != nil {
		return c.Name.Display
	}
	return ""
}

// PatientIdentifier is one identifier attached to a patient record.
type PatientIdentifier struct {
	UUID       string `json:"uuid,omitempty"`
	Identifier string `json:"identifier"`
	Display    string `json:"display,omitempty"`
}

// Patient is the projection of an OpenMRS patient used for order lookup.
type Patient struct {
	UUID        string              `json:"uuid"`
	Display     string              `json:"display"`
	Identifiers []PatientIdentifier `json:"identifiers,omitempty"`
}

// OrderType is an entry from the order-type listing.
type OrderType struct {
	UUID    string `json:"uuid"`
	Display string `json:"display"`
}

// ConceptRef is the concept reference embedded in an order.
type ConceptRef struct {
	UUID    string `json:"uuid"`
	Display string `json:"display"`
}

// Order is a clinical order for a patient. DateActivated drives the
// latest-batch selection in order lookup.
type Order struct {
	UUID          string     `json:"uuid"`
	OrderNumber   string     `json:"orderNumber,omitempty"`
	Display       string     `json:"display"`
	Concept       ConceptRef `json:"concept"`
	DateActivated Time       `json:"dateActivated"`
	Urgency       string     `json:"urgency,omitempty"`
	Action        string     `json:"action,omitempty"`
}

// Time unmarshals the timestamp formats OpenMRS emits: RFC 3339 and the
// legacy "2006-01-02T15:04:05.000-0700" form without a colon in the zone.
type Time struct {
	time.Time
}

const openmrsLayout = "2006-01-02T15:04:05.000-0700"

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.RFC3339, openmrsLayout, "2006-01-02"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("openmrs: cannot parse timestamp %q", s)
}

// MarshalJSON implements json.Marshaler.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(`"` + t.Format(time.RFC3339) + `"`), nil
}
