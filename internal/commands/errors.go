package commands

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"lifeos/internal/apperrors"
	"lifeos/internal/exitcode"
)

// reportError prints err the way every command does and returns the exit
// code for it.
//
//	validation, other 4xx  -> 1
//	no session, 401        -> 2
//	5xx, transport, other  -> 3
func reportError(errOut io.Writer, err error) int {
	var (
		ve *apperrors.ValidationError
		sr *apperrors.ServerRejected
		rf *apperrors.RequestFailed
	)
	switch {
	case errors.Is(err, apperrors.ErrSessionExpired):
		fmt.Fprintln(errOut, "error: session expired (run: lifeos login)")
		return exitcode.AuthError
	case errors.Is(err, apperrors.ErrNotLoggedIn):
		fmt.Fprintln(errOut, "error: not logged in (run: lifeos login)")
		return exitcode.AuthError
	case errors.As(err, &ve):
		fmt.Fprintf(errOut, "error: %s\n", ve.Reason)
		return exitcode.UserError
	case errors.As(err, &sr):
		switch {
		case sr.Status == http.StatusUnauthorized:
			fmt.Fprintf(errOut, "error: auth error: %s\n", sr)
			return exitcode.AuthError
		case sr.Status >= 400 && sr.Status < 500:
			fmt.Fprintf(errOut, "error: %s\n", sr)
			return exitcode.UserError
		}
		fmt.Fprintf(errOut, "error: backend error: %s\n", sr)
		return exitcode.BackendError
	case errors.As(err, &rf):
		fmt.Fprintf(errOut, "error: backend error: %v\n", rf)
		return exitcode.BackendError
	}
	fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	return exitcode.BackendError
}

// userError prints a usage problem and returns exitcode.UserError.
func userError(errOut io.Writer, format string, args ...any) int {
	fmt.Fprintf(errOut, "error: "+format+"\n", args...)
	return exitcode.UserError
}

// ok prints the success marker unless quiet.
func ok(out io.Writer, quiet bool) int {
	if !quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
