package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nhle/inbox/internal/app"
	"github.com/nhle/inbox/internal/ingest"
	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/theme"
)

var (
	errNotSignedIn   = errors.New(`not signed in; run "inbox login <identity>"`)
	errIdentityInTUI = errors.New(`--identity is not supported by the interactive inbox; use "inbox list --identity" or "inbox login"`)
)

func runTUI(ctx context.Context, flags globalFlags) error {
	// The interactive inbox signs in and out through the keyring, which a
	// fixed identity would contradict.
	if flags.identity != "" {
		return errIdentityInTUI
	}

	logFile, err := openLogFile(flags)
	if err != nil {
		return err
	}
	defer logFile.Close()

	e, err := setup(flags, logFile)
	if err != nil {
		return err
	}
	defer e.close()

	if err := theme.Apply(e.cfg.Display.Theme); err != nil {
		return err
	}

	opts := app.Options{
		Loader:  e.aggregator(e.session),
		Session: e.session,
		Store:   e.store,
		Logger:  e.logger,
	}

	if e.cfg.Push.Enabled {
		listener, err := e.listener()
		if err != nil {
			// The inbox still works from the local store.
			e.logger.Warn("push delivery disabled", "error", err)
		} else {
			opts.Listener = listener
		}
	}

	p := tea.NewProgram(app.New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running inbox: %w", err)
	}
	return nil
}

// listener connects to the broker and returns a stopped listener. The
// broker and registry are released by e.close.
func (e *env) listener() (*ingest.Listener, error) {
	b, err := ingest.Connect(e.cfg.Push, e.logger)
	if err != nil {
		return nil, err
	}
	reg := ingest.NewRegistry(b.Subscriber(), e.logger)
	e.closers = append(e.closers, b.Close, func() { _ = reg.Close() })

	in := ingest.NewIngestor(e.store, ingest.WithIngestLogger(e.logger))
	return ingest.NewListener(reg, in, e.cfg.Push.SubjectPrefix, e.logger), nil
}

func (e *env) currentIdentity(ctx context.Context) (string, error) {
	id, ok, err := e.provider.Current(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errNotSignedIn
	}
	return id, nil
}

func listCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the inbox grouped by time",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()

			buckets, err := e.aggregator(e.provider).Load(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(buckets)
			}
			printBuckets(cmd.OutOrStdout(), buckets, time.Now())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print buckets as JSON")
	return cmd
}

func printBuckets(w io.Writer, buckets []model.Bucket, now time.Time) {
	if len(buckets) == 0 {
		fmt.Fprintln(w, "No notifications.")
		return
	}
	for i, b := range buckets {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%d)\n", b.Title, len(b.Notifications))
		for _, n := range b.Notifications {
			when := n.ReceivedAt
			if t, err := n.Time(); err == nil {
				when = humanize.RelTime(t, now, "ago", "from now")
			}
			fmt.Fprintf(w, "  [%s] %s (%s)\n", n.Category.Info().Label, n.Summary(), when)
		}
	}
}

func pushCmd(flags *globalFlags) *cobra.Command {
	var msg ingest.Message

	cmd := &cobra.Command{
		Use:   "push <category>",
		Short: "Deliver a notification",
		Long: `Deliver a notification to an identity. With push.enabled and an
external broker the notification is published over NATS; otherwise it is
stored directly on this device.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := model.ParseCategory(args[0])
			if err != nil {
				return err
			}

			e, err := setup(*flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()

			id, err := e.currentIdentity(cmd.Context())
			if err != nil {
				return err
			}

			if e.cfg.Push.Enabled && !e.cfg.Push.Embedded {
				b, err := ingest.Connect(e.cfg.Push, e.logger)
				if err != nil {
					return err
				}
				defer b.Close()
				if err := ingest.Publish(b.Conn, e.cfg.Push.SubjectPrefix, id, c, msg); err != nil {
					return err
				}
				if err := b.Conn.Flush(); err != nil {
					return fmt.Errorf("flushing NATS connection: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "published to %s\n", ingest.Subject(e.cfg.Push.SubjectPrefix, id, c))
				return nil
			}

			body, err := json.Marshal(msg)
			if err != nil {
				return fmt.Errorf("encoding notification: %w", err)
			}
			in := ingest.NewIngestor(e.store, ingest.WithIngestLogger(e.logger))
			n, err := in.Ingest(cmd.Context(), id, c, body)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s notification %s\n", c, n.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&msg.ID, "id", "", "Notification id (generated when empty)")
	cmd.Flags().StringVar(&msg.Payload.SenderID, "from", "", "Sender identity")
	cmd.Flags().StringVar(&msg.Payload.SenderName, "name", "", "Sender display name")
	cmd.Flags().StringVar(&msg.Payload.TargetID, "target", "", "Target content id")
	cmd.Flags().StringVar(&msg.Payload.ImageURL, "image", "", "Display image reference")
	cmd.Flags().StringVar(&msg.Payload.Text, "text", "", "Optional text")
	return cmd
}

func listenCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Store push notifications until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()

			id, err := e.currentIdentity(cmd.Context())
			if err != nil {
				return err
			}

			l, err := e.listener()
			if err != nil {
				return err
			}
			if err := l.Start(id); err != nil {
				return err
			}
			defer l.Stop()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "listening on %s (ctrl+c to stop)\n", ingest.WildcardSubject(e.cfg.Push.SubjectPrefix, id))
			for {
				select {
				case <-ctx.Done():
					return nil
				case msg := <-l.Received():
					n := msg.Notification
					fmt.Fprintf(out, "[%s] %s\n", n.Category.Info().Label, n.Summary())
				}
			}
		},
	}
}

func loginCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "login <identity>",
		Short: "Sign in on this device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()

			if err := e.session.SignIn(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", args[0])
			return nil
		},
	}
}

func logoutCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out on this device",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()

			if err := e.session.SignOut(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func whoamiCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the signed-in identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()

			id, err := e.currentIdentity(cmd.Context())
			if errors.Is(err, errNotSignedIn) {
				fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func clearCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear [category]",
		Short: "Delete stored notifications",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(*flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()

			id, err := e.currentIdentity(cmd.Context())
			if err != nil {
				return err
			}

			if len(args) == 0 {
				if err := e.store.ClearAll(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cleared all notifications for %s\n", id)
				return nil
			}

			c, err := model.ParseCategory(args[0])
			if err != nil {
				return err
			}
			if err := e.store.Clear(cmd.Context(), id, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s notifications for %s\n", c, id)
			return nil
		},
	}
}
