package domain

type User struct {
	Id       UserId
	Email    Email
	Username string
	PassHash string
	Admin    bool
	Verified bool
}

type Credentials struct {
	Email    Email
	Password Password
}
