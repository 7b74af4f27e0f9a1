package tile

import (
	"errors"
	"iter"
)

var errVisitCancelled = errors.New("visit cancelled")

// IterMembers returns an iterator over all members of the archive.
// It yields members and their data. Iteration may panic on unrecoverable errors.
func IterMembers(r Visitor) iter.Seq2[Member, []byte] {
	return func(yield func(Member, []byte) bool) {
		err := r.VisitMembers(func(member Member, data []byte) error {
			if !yield(member, data) {
				return errVisitCancelled
			}
			return nil
		})
		if err != nil && err != errVisitCancelled {
			panic(err)
		}
	}
}
