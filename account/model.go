package account

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when no document matches a lookup or an unguarded update.
	ErrNotFound = errors.New("account not found")
	// ErrConflict is returned when a guarded update finds the document changed since it was read.
	ErrConflict = errors.New("account changed concurrently")
	// ErrDuplicate is returned by Create when the email is already registered.
	ErrDuplicate = errors.New("account already exists")
	// ErrInvalidID is returned when an id cannot be used to address a document.
	ErrInvalidID = errors.New("invalid account id")
)

// IDField is the document id property. It is not remappable.
const IDField = "_id"

// State is the engine's read snapshot of one account document.
type State struct {
	ID           string
	Email        string
	PasswordHash string
	Active       bool
	Blocked      bool
	Attempts     int
	Code         string
	HasCode      bool
}

// Patch is the set of field writes produced by one decision. Nil pointers are
// left untouched. ClearCode writes a null code and wins over Code.
type Patch struct {
	Attempts     *int
	Blocked      *bool
	Active       *bool
	Code         *string
	ClearCode    bool
	PasswordHash *string
}

// IsEmpty reports whether the patch writes nothing.
func (p Patch) IsEmpty() bool {
	return p.Attempts == nil &&
		p.Blocked == nil &&
		p.Active == nil &&
		p.Code == nil &&
		!p.ClearCode &&
		p.PasswordHash == nil
}

// Filter selects one account. Empty fields do not constrain the match.
//
// Attempts turns an update into a compare-and-set: when the stored attempt
// counter differs, the update does not apply and the store returns ErrConflict.
type Filter struct {
	ID       string
	Email    string
	Code     *string
	Attempts *int
}

// guarded reports whether a miss on this filter means a lost race rather than absence.
func (f Filter) guarded() bool {
	return f.Attempts != nil
}

// UpdateOptions controls what an update call returns.
type UpdateOptions struct {
	// ReturnDocument asks for the projected document as it is after the update.
	ReturnDocument bool
}

// Fields maps the tracked account properties onto document property names.
type Fields struct {
	Email    string
	Password string
	Active   string
	Blocked  string
	Attempts string
	Code     string
}

// DefaultFields returns the property names used when the host does not override them.
func DefaultFields() Fields {
	return Fields{
		Email:    "email",
		Password: "password",
		Active:   "isActive",
		Blocked:  "isBlocked",
		Attempts: "attempts",
		Code:     "code",
	}
}

// Validate rejects empty, duplicated or operator-like property names.
func (f Fields) Validate() error {
	named := []struct {
		label string
		value string
	}{
		{"Email", f.Email},
		{"Password", f.Password},
		{"Active", f.Active},
		{"Blocked", f.Blocked},
		{"Attempts", f.Attempts},
		{"Code", f.Code},
	}

	seen := make(map[string]string, len(named))
	for _, n := range named {
		name := strings.TrimSpace(n.value)
		switch {
		case name == "":
			return fmt.Errorf("account field %s must not be empty", n.label)
		case name != n.value:
			return fmt.Errorf("account field %s must not have surrounding spaces", n.label)
		case name == IDField:
			return fmt.Errorf("account field %s must not be %q", n.label, IDField)
		case strings.HasPrefix(name, "$"):
			return fmt.Errorf("account field %s must not start with $", n.label)
		case strings.Contains(name, "."):
			return fmt.Errorf("account field %s must not contain a dot", n.label)
		}
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("account fields %s and %s share the name %q", prev, n.label, name)
		}
		seen[name] = n.label
	}

	return nil
}

// Projection selects the properties of a returned document, in MongoDB style:
// 1 includes a property, 0 excludes it. Inclusion and exclusion cannot be mixed,
// except that _id may always be excluded.
type Projection map[string]int

// DefaultProjection hides the credential and code properties of fields.
func DefaultProjection(fields Fields) Projection {
	return Projection{
		fields.Password: 0,
		fields.Code:     0,
	}
}

// Validate checks the projection values and that it is purely inclusive or exclusive.
func (p Projection) Validate() error {
	var include, exclude bool
	for name, v := range p {
		if strings.TrimSpace(name) == "" {
			return errors.New("projection property must not be empty")
		}
		switch v {
		case 0:
			if name != IDField {
				exclude = true
			}
		case 1:
			include = true
		default:
			return fmt.Errorf("projection value for %q must be 0 or 1", name)
		}
	}
	if include && exclude {
		return errors.New("projection cannot mix inclusion and exclusion")
	}
	return nil
}

// Clone returns an independent copy.
func (p Projection) Clone() Projection {
	if p == nil {
		return nil
	}
	out := make(Projection, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
