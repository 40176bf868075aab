package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"securelink/internal/domain"
	"securelink/internal/protocol/canon"
)

// inspect <file>: pretty-print a captured frame. "-" reads stdin.
func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Dump a relay frame and its decoded payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = os.Stdin
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			var frame domain.Frame
			if err := json.NewDecoder(r).Decode(&frame); err != nil {
				return fmt.Errorf("decode frame: %w", err)
			}

			cs := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true}
			out := cmd.OutOrStdout()
			cs.Fdump(out, frame.Kind, frame.From, frame.To)

			switch frame.Kind {
			case domain.FrameInit, domain.FrameResp:
				var sh domain.SignedHandshake
				if err := json.Unmarshal(frame.Payload, &sh); err != nil {
					return fmt.Errorf("decode handshake: %w", err)
				}
				cs.Fdump(out, sh)
				b, err := canon.Encode(sh.Body)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "canonical: %s\n", b)
			case domain.FrameConfirm, domain.FrameChat:
				var env domain.SecureEnvelope
				if err := json.Unmarshal(frame.Payload, &env); err != nil {
					return fmt.Errorf("decode envelope: %w", err)
				}
				cs.Fdump(out, env)
			default:
				return fmt.Errorf("unknown frame kind %q", frame.Kind)
			}
			return nil
		},
	}
}
