package user

import "errors"

// Type is fixed when the account is created and never taken from client input afterwards.
type Type string

const (
	TypeUser       Type = "user"
	TypeSuperAdmin Type = "superadmin"
)

func NewType(t string) (Type, error) {
	typ := Type(t)
	if !typ.IsValid() {
		return "", errors.New("invalid user type")
	}
	return typ, nil
}

func (t Type) IsValid() bool {
	switch t {
	case TypeUser, TypeSuperAdmin:
		return true
	}
	return false
}
