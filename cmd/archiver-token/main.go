// Command archiver-token mints bearer tokens for the archiver HTTP API.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/spec-kit/ticket-archiver/internal/auth"
	"github.com/spec-kit/ticket-archiver/internal/config"
	"github.com/spec-kit/ticket-archiver/internal/domain"
)

func main() {
	user := flag.String("user", "", "platform user id the token acts as")
	guild := flag.String("guild", "", "guild the requests are made from; empty for direct messages")
	scopes := flag.String("scopes", auth.ScopeTranscripts, "comma separated scopes")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var granted []string
	for _, s := range strings.Split(*scopes, ",") {
		if s = strings.TrimSpace(s); s != "" {
			granted = append(granted, s)
		}
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLMinutes)
	token, expiresAt, err := tokens.GenerateToken(domain.UserID(*user), domain.GuildID(*guild), granted...)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	fmt.Printf("%s\n# expires %s\n", token, expiresAt.Format("2006-01-02T15:04:05Z07:00"))
}
