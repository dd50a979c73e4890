// Package credential checks a presented name and secret against a user directory.
//
// Every rejection, whether the name is unknown, the account is disabled, the secret is
// wrong or a field is empty, is reported as [ErrInvalidCredentials]. Unknown names still
// pay for one hash comparison so timing does not reveal which names exist.
package credential
