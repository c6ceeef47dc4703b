package errorx

type Code int

var Unknown = Error{Code: 100000, Message: "Something went wrong, try again later"}

const (
	// Common codes
	BadRequest       Code = 100001
	PermissionDenied Code = 100003
	NotFound         Code = 100004
	AlreadyExists    Code = 100006
	Internal         Code = 100007
	Unavailable      Code = 100008
	NotImplemented   Code = 100009
	TooManyRequests  Code = 100010

	// Restriction codes
	Banned        Code = 200001
	Muted         Code = 200002
	Cooldown      Code = 200003
	LinkViolation Code = 200004

	// Moderation codes
	AlreadyProcessed Code = 300001
)
