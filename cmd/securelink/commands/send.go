package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"securelink/internal/app"
	"securelink/internal/domain"
)

// send <peer> <message>: handshake with a listening peer, then send one message.
func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <peer> <message>",
		Short: "Establish a session with a peer and send one message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, id, err := connect(cmd.Context(), domain.Username(args[0]), printMessage)
			if err != nil {
				return err
			}
			defer node.Messenger.Close(id)

			if err := node.Messenger.SendMessage(cmd.Context(), id, args[1]); err != nil {
				return err
			}
			fmt.Println("sent")
			return nil
		},
	}
}

// chat <peer>: handshake, then send each line read from stdin.
func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <peer>",
		Short: "Establish a session and send stdin lines until EOF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			node, id, err := connect(ctx, domain.Username(args[0]), printMessage)
			if err != nil {
				return err
			}
			defer node.Messenger.Close(id)

			done := make(chan error, 1)
			go func() { done <- node.Messenger.Run(ctx) }()

			sc := bufio.NewScanner(os.Stdin)
			for sc.Scan() {
				line := strings.TrimSpace(sc.Text())
				if line == "" {
					continue
				}
				if err := node.Messenger.SendMessage(ctx, id, line); err != nil {
					return err
				}
			}
			cancel()
			return <-done
		},
	}
}

// connect unlocks the identity, starts a handshake with peer and waits for it
// to complete within the handshake timeout.
func connect(ctx context.Context, peer domain.Username, deliver func(domain.DecryptedMessage)) (*app.Node, domain.SessionID, error) {
	if err := requirePassphrase(); err != nil {
		return nil, "", err
	}
	node, err := appCtx.Node(passphrase, deliver)
	if err != nil {
		return nil, "", err
	}
	id, err := node.Messenger.Connect(ctx, peer)
	if err != nil {
		return nil, "", err
	}

	wait, cancel := context.WithTimeout(ctx, appCtx.Config.HandshakeTimeout)
	defer cancel()
	if err := node.Messenger.WaitEstablished(wait, id); err != nil {
		return nil, "", fmt.Errorf("handshake with %s: %w", peer, err)
	}
	fmt.Fprintf(os.Stderr, "session %s established with %s\n", id, peer)
	return node, id, nil
}

func printMessage(m domain.DecryptedMessage) {
	fmt.Printf("[%s] %s\n", m.From, m.Text)
}
