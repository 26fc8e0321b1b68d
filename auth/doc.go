// Package auth gates inbound requests on the user_session cookie.
//
// A Gate classifies the request path, inspects the session cookie and
// returns a Decision: continue, continue with identity headers, or one of
// three redirects. The gate never writes to the response; the api package
// turns decisions into HTTP behaviour.
package auth
