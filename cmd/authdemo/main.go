// Command authdemo logs into a backend app, prints the authenticated user,
// and logs out again. It exercises the full session lifecycle against a live
// deployment.
//
// Configuration comes from the environment:
//
//	AUTHDEMO_BASE_URL            backend base URL (required)
//	AUTHDEMO_APP_ID              client app id (required)
//	AUTHDEMO_USERNAME            username for local-userpass login (optional)
//	AUTHDEMO_PASSWORD            password for local-userpass login (optional)
//	AUTHDEMO_STORAGE_PATH        where to persist auth state (optional)
//	AUTHDEMO_STORAGE_PASSPHRASE  encrypt persisted tokens at rest (optional)
//	AUTHDEMO_REFRESH_INTERVAL    proactive refresh interval (optional)
//
// Without a username the demo logs in anonymously.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/gragonvlad/stitch-go-sdk/auth"
	"github.com/gragonvlad/stitch-go-sdk/auth/credentials"
	"github.com/gragonvlad/stitch-go-sdk/internal/config"
	"github.com/gragonvlad/stitch-go-sdk/storage"
	"github.com/gragonvlad/stitch-go-sdk/transport"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error running authdemo: %s\n", err)
	}
}

func run() error {
	c := config.New()
	if c.GetBaseURL() == "" || c.GetAppID() == "" {
		return fmt.Errorf("AUTHDEMO_BASE_URL and AUTHDEMO_APP_ID must be set")
	}

	displayAppname("authdemo")
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	tr, err := transport.NewHTTPTransport(c.GetBaseURL(), transport.WithTransportLogger(logger))
	if err != nil {
		return err
	}

	st, err := buildStorage(c)
	if err != nil {
		return err
	}

	a, err := auth.New(c.GetAppID(), tr, st,
		auth.WithLogger(logger),
		auth.WithBackgroundRefreshInterval(c.GetRefreshInterval()),
		auth.WithHooks(auth.Hooks{OnAuthEvent: func() {
			logger.Info().Msg("auth state changed")
		}}),
	)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := a.LoginWithCredential(ctx, credential(c))
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Printf("logged in as %s (%s via %s)\n", user.ID(), user.Profile().Name(), user.LoggedInProviderType())

	fmt.Println("press Ctrl-C to log out and exit")
	waitForStopSignal()

	if err := a.Logout(context.Background()); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	fmt.Println("logged out")
	return nil
}

func buildStorage(c config.Config) (storage.Storage, error) {
	fs, err := storage.NewFileStorage(c.GetStoragePath())
	if err != nil {
		return nil, err
	}
	if passphrase := c.GetStoragePassphrase(); passphrase != "" {
		return storage.NewEncryptedStorage(fs, passphrase)
	}
	return fs, nil
}

func credential(c config.Config) credentials.Credential {
	if c.GetUsername() == "" {
		return credentials.NewAnonymousCredential()
	}
	return credentials.NewUserPasswordCredential(c.GetUsername(), c.GetPassword())
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
