package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/vantagefps/vantage/pkg/config"
	"github.com/vantagefps/vantage/pkg/ingress"
	"github.com/vantagefps/vantage/pkg/lobby"
	"github.com/vantagefps/vantage/pkg/state"

	"github.com/rs/zerolog/log"
)

func serveCommand(configs []string) error {
	conf, err := config.Process(configs)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	serverConfig := conf.Server

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stateService := state.NewStateService(
		serverConfig.Redis,
		serverConfig.Matchmaking.DefaultRating,
	)

	var economy *state.EconomyStore
	if serverConfig.DBPath != "" {
		db, err := state.InitDB(serverConfig.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		economy = state.NewEconomyStore(db)
	}

	matchmaker := lobby.NewMatchmaker(
		serverConfig.Matchmaking,
		serverConfig.Room,
		stateService,
		economy,
	)
	go matchmaker.Poll(ctx)

	gateway := ingress.NewGateway(ctx, stateService, matchmaker)
	go gateway.Poll(ctx)

	enetIngresses := make([]*ingress.ENetIngress, 0)
	for _, enetConfig := range serverConfig.Ingress.Desktop {
		enetIngress := ingress.NewENetIngress(gateway, enetConfig.Port)
		if err := enetIngress.Start(); err != nil {
			return err
		}
		go enetIngress.Poll(ctx)
		enetIngresses = append(enetIngresses, enetIngress)
	}

	wsIngress := ingress.NewWSIngress(gateway)

	errc := make(chan error, 1)
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/ws/", wsIngress)
		mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
			status := struct {
				Description string                `json:"description"`
				Clients     int                   `json:"clients"`
				Lobby       lobby.LobbyStatistics `json:"lobby"`
			}{
				Description: serverConfig.ServerDescription,
				Clients:     gateway.NumClients(),
				Lobby:       matchmaker.GetStatistics(),
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(status)
		})

		addr := fmt.Sprintf("0.0.0.0:%d", serverConfig.Ingress.Web.Port)
		log.Info().Str("addr", addr).Msg("web ingress listening")
		errc <- http.ListenAndServe(addr, mux)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)

	select {
	case err := <-errc:
		log.Error().Err(err).Msg("failed to serve")
	case sig := <-sigs:
		log.Info().Msgf("terminating: %v", sig)
	}

	cancel()
	for _, enetIngress := range enetIngresses {
		enetIngress.Stop()
	}

	return nil
}
