package identity

// Actor is the opaque identity reference used for buyer/seller/staff
// equality checks. The zero value is an unauthenticated visitor.
type Actor struct {
	ID    string
	Staff bool
}

func (a Actor) Authenticated() bool {
	return a.ID != ""
}
