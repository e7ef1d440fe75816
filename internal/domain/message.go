package domain

const RoleUser = "user"

type Message struct {
	Role    string
	Content string
}
