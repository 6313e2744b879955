// Package host is the caller side of the boundary.
//
// It drives a guest library (a wazero instance or the in-process guest)
// through ports.Guest and exposes it with the ownership of every value in
// the type system:
//
//   - Owned[T] is memory the guest handed over; it must be released exactly
//     once with Release, and Scoped releases it on every exit path.
//   - Borrowed[T] is a view of memory the caller must not release.
//   - Database is the opaque handle; Close is idempotent.
//
// Inputs are copied into guest scratch memory for the duration of a call and
// results are copied out before the scratch is returned, so no Go value ever
// aliases guest memory.
//
// # Basic Usage
//
//	g, _ := inproc.New(inproc.WithLogger(logger))
//	lib, err := host.Open(ctx, g, host.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer lib.Close(ctx)
//
//	err = lib.WithSong(ctx, 3, func(song string) error {
//	    fmt.Println(song)
//	    return nil
//	})
//
// A broken precondition, whether caught here before crossing or by the guest,
// is returned as *errors.ContractViolationError. A violation caught by the
// guest terminates it, and every later call returns errors.ErrGuestTerminated.
// A Library is not safe for concurrent use.
package host
