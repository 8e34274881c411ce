package core

type ErrorNotFound struct {
}

func (e ErrorNotFound) Error() string {
	return "Not Found"
}

func NewErrorNotFound() ErrorNotFound {
	return ErrorNotFound{}
}

type ErrorAlreadyExists struct {
}

func (e ErrorAlreadyExists) Error() string {
	return "Already Exists"
}

func NewErrorAlreadyExists() ErrorAlreadyExists {
	return ErrorAlreadyExists{}
}

type ErrorTokenMalformed struct {
}

func (e ErrorTokenMalformed) Error() string {
	return "Token Malformed"
}

func NewErrorTokenMalformed() ErrorTokenMalformed {
	return ErrorTokenMalformed{}
}

type ErrorTokenExpired struct {
}

func (e ErrorTokenExpired) Error() string {
	return "Token Expired"
}

func NewErrorTokenExpired() ErrorTokenExpired {
	return ErrorTokenExpired{}
}

type ErrorTokenNotYetValid struct {
}

func (e ErrorTokenNotYetValid) Error() string {
	return "Token Not Yet Valid"
}

func NewErrorTokenNotYetValid() ErrorTokenNotYetValid {
	return ErrorTokenNotYetValid{}
}

type ErrorSignatureInvalid struct {
}

func (e ErrorSignatureInvalid) Error() string {
	return "Signature Invalid"
}

func NewErrorSignatureInvalid() ErrorSignatureInvalid {
	return ErrorSignatureInvalid{}
}

type ErrorUnknownIssuer struct {
}

func (e ErrorUnknownIssuer) Error() string {
	return "Unknown Issuer"
}

func NewErrorUnknownIssuer() ErrorUnknownIssuer {
	return ErrorUnknownIssuer{}
}

type ErrorAudienceMismatch struct {
}

func (e ErrorAudienceMismatch) Error() string {
	return "Audience Mismatch"
}

func NewErrorAudienceMismatch() ErrorAudienceMismatch {
	return ErrorAudienceMismatch{}
}

type ErrorIssuerMismatch struct {
}

func (e ErrorIssuerMismatch) Error() string {
	return "Issuer Mismatch"
}

func NewErrorIssuerMismatch() ErrorIssuerMismatch {
	return ErrorIssuerMismatch{}
}

type ErrorClaimsInvalid struct {
}

func (e ErrorClaimsInvalid) Error() string {
	return "Claims Invalid"
}

func NewErrorClaimsInvalid() ErrorClaimsInvalid {
	return ErrorClaimsInvalid{}
}

type ErrorLockNotAcquired struct {
}

func (e ErrorLockNotAcquired) Error() string {
	return "Lock Not Acquired"
}

func NewErrorLockNotAcquired() ErrorLockNotAcquired {
	return ErrorLockNotAcquired{}
}

type ErrorCacheMiss struct {
}

func (e ErrorCacheMiss) Error() string {
	return "Cache Miss"
}

func NewErrorCacheMiss() ErrorCacheMiss {
	return ErrorCacheMiss{}
}

type ErrorPermissionDenied struct {
	Reason string
}

func (e ErrorPermissionDenied) Error() string {
	if e.Reason == "" {
		return "Permission Denied"
	}
	return "Permission Denied: " + e.Reason
}

func NewErrorPermissionDenied(reason string) ErrorPermissionDenied {
	return ErrorPermissionDenied{Reason: reason}
}
