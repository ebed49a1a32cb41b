// Package login performs one Kerberos-authenticated call to the
// auth/kerberos/login endpoint and classifies the response.
//
// The raw JSON is parsed once, at this boundary, into a Result holding
// exactly one of Authenticated, Rejected or TransportFailure. Nothing
// downstream sees the response body.
package login
