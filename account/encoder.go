package account

import (
	"fmt"
	"math"
	"strconv"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// idValue converts an external id into the value stored under _id. Hex strings
// of ObjectID length are treated as ObjectIDs, anything else is kept verbatim.
func idValue(id string) (any, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	if len(id) == 24 {
		if oid, err := bson.ObjectIDFromHex(id); err == nil {
			return oid, nil
		}
	}
	return id, nil
}

func idString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case bson.ObjectID:
		return id.Hex()
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}

func (f Fields) filterDocument(filter Filter) (bson.D, error) {
	doc := bson.D{}
	if filter.ID != "" {
		id, err := idValue(filter.ID)
		if err != nil {
			return nil, err
		}
		doc = append(doc, bson.E{Key: IDField, Value: id})
	}
	if filter.Email != "" {
		doc = append(doc, bson.E{Key: f.Email, Value: filter.Email})
	}
	if filter.Code != nil {
		doc = append(doc, bson.E{Key: f.Code, Value: codeFilterValue(*filter.Code)})
	}
	if filter.Attempts != nil {
		doc = append(doc, bson.E{Key: f.Attempts, Value: *filter.Attempts})
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("account filter must constrain at least one field")
	}
	return doc, nil
}

// maxExactFloat is the largest integer a float64 code holds without rounding.
const maxExactFloat = 1 << 53

// numericCode parses code when it is the canonical decimal form of a
// non-negative integer. "0482" is not canonical: a stored number 482 reads
// back as "482", so it never matches.
func numericCode(code string) (int64, bool) {
	if code == "" || (len(code) > 1 && code[0] == '0') {
		return 0, false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(code, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// codeFilterValue matches code stored as a string and, for canonical digit
// strings, as the number legacy documents hold.
func codeFilterValue(code string) any {
	n, ok := numericCode(code)
	if !ok {
		return code
	}
	values := bson.A{code, n}
	if n <= math.MaxInt32 {
		values = append(values, int32(n))
	}
	if n <= maxExactFloat {
		values = append(values, float64(n))
	}
	return bson.D{{Key: "$in", Value: values}}
}

// codeEquals applies the codeFilterValue rules to one stored value.
func codeEquals(stored any, code string) bool {
	if s, ok := stored.(string); ok {
		return s == code
	}
	n, ok := numericCode(code)
	if !ok {
		return false
	}
	switch v := stored.(type) {
	case int32:
		return int64(v) == n
	case int64:
		return v == n
	case float64:
		return n <= maxExactFloat && v == float64(n)
	default:
		return false
	}
}

func (f Fields) setDocument(p Patch) bson.D {
	set := bson.D{}
	if p.Attempts != nil {
		set = append(set, bson.E{Key: f.Attempts, Value: *p.Attempts})
	}
	if p.Blocked != nil {
		set = append(set, bson.E{Key: f.Blocked, Value: *p.Blocked})
	}
	if p.Active != nil {
		set = append(set, bson.E{Key: f.Active, Value: *p.Active})
	}
	switch {
	case p.ClearCode:
		set = append(set, bson.E{Key: f.Code, Value: nil})
	case p.Code != nil:
		set = append(set, bson.E{Key: f.Code, Value: *p.Code})
	}
	if p.PasswordHash != nil {
		set = append(set, bson.E{Key: f.Password, Value: *p.PasswordHash})
	}
	return set
}

func (f Fields) updateDocument(p Patch) bson.D {
	return bson.D{{Key: "$set", Value: f.setDocument(p)}}
}

func (f Fields) stateFromDocument(doc bson.M) (*State, error) {
	if doc == nil {
		return nil, ErrNotFound
	}

	state := &State{ID: idString(doc[IDField])}

	if v, ok := doc[f.Email]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("account property %q is %T, want string", f.Email, v)
		}
		state.Email = s
	}
	if v, ok := doc[f.Password]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("account property %q is %T, want string", f.Password, v)
		}
		state.PasswordHash = s
	}
	state.Active = truthy(doc[f.Active])
	state.Blocked = truthy(doc[f.Blocked])

	if v, ok := doc[f.Attempts]; ok && v != nil {
		n, ok := intValue(v)
		if !ok {
			return nil, fmt.Errorf("account property %q is %T, want number", f.Attempts, v)
		}
		state.Attempts = n
	}

	switch c := doc[f.Code].(type) {
	case nil:
	case string:
		state.Code, state.HasCode = c, true
	case int32:
		state.Code, state.HasCode = strconv.FormatInt(int64(c), 10), true
	case int64:
		state.Code, state.HasCode = strconv.FormatInt(c, 10), true
	case float64:
		state.Code, state.HasCode = strconv.FormatFloat(c, 'f', -1, 64), true
	default:
		return nil, fmt.Errorf("account property %q is %T, want string", f.Code, c)
	}

	return state, nil
}

// newDocument merges the tracked state over the host-supplied extra document.
func (f Fields) newDocument(state State, extra any) (bson.M, error) {
	doc := bson.M{}
	if extra != nil {
		raw, err := bson.Marshal(extra)
		if err != nil {
			return nil, fmt.Errorf("encode account extra fields: %w", err)
		}
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode account extra fields: %w", err)
		}
		switch id := doc[IDField].(type) {
		case nil:
			delete(doc, IDField)
		case bson.ObjectID:
			if id.IsZero() {
				delete(doc, IDField)
			}
		case string:
			if id == "" {
				delete(doc, IDField)
			}
		}
	}

	doc[f.Email] = state.Email
	doc[f.Password] = state.PasswordHash
	doc[f.Active] = state.Active
	doc[f.Blocked] = state.Blocked
	doc[f.Attempts] = state.Attempts
	if state.HasCode {
		doc[f.Code] = state.Code
	} else {
		doc[f.Code] = nil
	}

	if state.ID != "" {
		id, err := idValue(state.ID)
		if err != nil {
			return nil, err
		}
		doc[IDField] = id
	}

	return doc, nil
}

func (p Projection) document() bson.D {
	if len(p) == 0 {
		return nil
	}
	doc := make(bson.D, 0, len(p))
	for k, v := range p {
		doc = append(doc, bson.E{Key: k, Value: v})
	}
	return doc
}

// apply returns a copy of doc reduced the same way the server applies a projection.
func (p Projection) apply(doc bson.M) bson.M {
	out := make(bson.M, len(doc))
	if len(p) == 0 {
		for k, v := range doc {
			out[k] = v
		}
		return out
	}

	inclusive := false
	for k, v := range p {
		if v == 1 && k != IDField {
			inclusive = true
			break
		}
	}

	if inclusive {
		for k, v := range p {
			if v != 1 {
				continue
			}
			if val, ok := doc[k]; ok {
				out[k] = val
			}
		}
		if mode, ok := p[IDField]; !ok || mode == 1 {
			if id, ok := doc[IDField]; ok {
				out[IDField] = id
			}
		}
		return out
	}

	for k, v := range doc {
		if mode, ok := p[k]; ok && mode == 0 {
			continue
		}
		out[k] = v
	}
	return out
}

func decodeDocument[U any](doc bson.M) (*U, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode account document: %w", err)
	}
	var out U
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode account document: %w", err)
	}
	return &out, nil
}

func truthy(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
