package domain

// Credentials accompany a Request. Password is only ever transmitted
// inside a framed payload over the wire connection, never logged.
type Credentials struct {
	Username string
	Password string
}

// Request is a client-issued command with its arguments, any Person
// payloads the command needs, and the credentials authenticating it.
type Request struct {
	Command     string
	Args        []string
	Persons     []Person
	Credentials Credentials
}

// Response is returned for every Request. Script is non-empty only for
// commands that want the client to feed back further commands line by
// line (execute_script).
type Response struct {
	Message string
	Persons []Person
	Script  string
}
