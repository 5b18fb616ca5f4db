package client

import (
	"fmt"
	"io"
	"time"

	"github.com/cheildo/game-of-three/internal/autoplay"
	"github.com/cheildo/game-of-three/internal/protocol"
)

// PrintMove writes one received move to w.
func PrintMove(w io.Writer, move protocol.AppliedMove, at time.Time) {
	fmt.Fprintln(w, "New game move:")
	fmt.Fprintf(w, "  timestamp: %s\n", at.Format(time.RFC3339))
	fmt.Fprintf(w, "  resultingNumber: %d\n", move.ResultingNumber)
	if move.Added == nil {
		return
	}
	fmt.Fprintf(w, "  added: %d\n", *move.Added)
	fmt.Fprintf(w, "  resultingNumberPlusAdded: %d\n", move.ResultingNumber+*move.Added)
	fmt.Fprintf(w, "  resultingNumberPlusAddedDividedBy3: %d\n", autoplay.Quotient(move))
}

func printNotification(w io.Writer, n protocol.Notification) {
	fmt.Fprintf(w, "notification: %s\n", n.Text)
}

func printError(w io.Writer, e protocol.ErrorEvent) {
	fmt.Fprintf(w, "Error: %s (%s)\n", e.ErrorMessage, e.ErrorCode)
}
