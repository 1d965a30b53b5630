package service

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidUpdate = errors.New("invalid updates")

// ProfileUpdate is the closed set of mutable profile fields. A nil field
// means "leave unchanged"; there is no way to express an update outside
// this struct.
type ProfileUpdate struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Age      *int    `json:"age"`
	Address  *string `json:"address"`
}

var allowedProfileFields = map[string]struct{}{
	"name":     {},
	"email":    {},
	"password": {},
	"age":      {},
	"address":  {},
}

// ParseProfileUpdate decodes an update body and rejects the whole request
// when any key falls outside the allow-list.
func ParseProfileUpdate(body []byte) (ProfileUpdate, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return ProfileUpdate{}, fmt.Errorf("%w: malformed body", ErrInvalidUpdate)
	}

	for key := range raw {
		if _, ok := allowedProfileFields[key]; !ok {
			return ProfileUpdate{}, fmt.Errorf("%w: unknown field %q", ErrInvalidUpdate, key)
		}
	}

	var update ProfileUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		return ProfileUpdate{}, fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
	}

	if update.Password != nil && len(*update.Password) < 7 {
		return ProfileUpdate{}, fmt.Errorf("%w: password too short", ErrInvalidUpdate)
	}
	if update.Age != nil && *update.Age < 0 {
		return ProfileUpdate{}, fmt.Errorf("%w: age must not be negative", ErrInvalidUpdate)
	}

	return update, nil
}
