package entity

// UserPatch describes a partial update. A nil field is left untouched, so
// explicit zero values such as Status=false are persisted.
//
// Password carries the digest by the time it reaches a repository; the
// application layer hashes the plaintext before building the patch.
type UserPatch struct {
	UserName     *string
	FirstName    *string
	LastName     *string
	Email        *string
	Password     *string
	ProfileImage *string
	IsAdmin      *bool
	Status       *bool
}

// IsEmpty reports whether no field is set.
func (p UserPatch) IsEmpty() bool {
	return p.UserName == nil && p.FirstName == nil && p.LastName == nil &&
		p.Email == nil && p.Password == nil && p.ProfileImage == nil &&
		p.IsAdmin == nil && p.Status == nil
}

// IsPrivileged reports whether p touches isAdmin or status.
func (p UserPatch) IsPrivileged() bool {
	return p.IsAdmin != nil || p.Status != nil
}

// Apply copies the set fields of p onto u.
func (p UserPatch) Apply(u *User) {
	if p.UserName != nil {
		u.UserName = *p.UserName
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Password != nil {
		u.Password = *p.Password
	}
	if p.ProfileImage != nil {
		u.ProfileImage = *p.ProfileImage
	}
	if p.IsAdmin != nil {
		u.IsAdmin = *p.IsAdmin
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
}
