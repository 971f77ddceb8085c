package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/rocketscienceinc/punto-backend/internal/apperror"
	"github.com/rocketscienceinc/punto-backend/internal/netsync"
	"github.com/rocketscienceinc/punto-backend/internal/pkg"
)

// Dialer opens a transport to the relay at url.
type Dialer func(ctx context.Context, url string) (netsync.Transport, error)

type GameManagerOptions struct {
	HistoryLimit int
	ThinkMin     time.Duration
	ThinkMax     time.Duration
	Clock        clock.Clock

	// AllowedRelays limits which relay urls Host and Join may dial. Empty allows any.
	AllowedRelays []string
}

// ManagedGame is one local game and, once hosted or joined, its session.
type ManagedGame struct {
	ID         string
	Controller *GameController
	Recorder   *StatusRecorder

	mu          sync.Mutex
	coordinator *netsync.Coordinator
}

// Session - returns the session the game takes part in. The role is empty when it is offline.
func (that *ManagedGame) Session() (string, int, netsync.Role) {
	that.mu.Lock()
	coordinator := that.coordinator
	that.mu.Unlock()

	if coordinator == nil {
		return "", 0, netsync.RoleNone
	}

	return coordinator.Session()
}

// GameManager owns the local games by id.
type GameManager struct {
	logger *slog.Logger
	opts   GameManagerOptions
	dialer Dialer

	mu    sync.RWMutex
	games map[string]*ManagedGame
}

func NewGameManager(logger *slog.Logger, opts GameManagerOptions, dialer Dialer) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game_manager"),
		opts:   opts,
		dialer: dialer,
		games:  make(map[string]*ManagedGame),
	}
}

// CreateGame - starts a new local game. Empty playerIDs means four players.
func (that *GameManager) CreateGame(playerIDs, aiPlayerIDs []int) (*ManagedGame, error) {
	recorder := NewStatusRecorder()

	controller, err := NewGameController(that.logger, recorder, ControllerOptions{
		PlayerIDs:    playerIDs,
		AIPlayerIDs:  aiPlayerIDs,
		HistoryLimit: that.opts.HistoryLimit,
		ThinkMin:     that.opts.ThinkMin,
		ThinkMax:     that.opts.ThinkMax,
		Clock:        that.opts.Clock,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	game := &ManagedGame{
		ID:         pkg.NewID(),
		Controller: controller,
		Recorder:   recorder,
	}

	that.mu.Lock()
	that.games[game.ID] = game
	that.mu.Unlock()

	controller.Start()

	that.logger.Info("game created", "gameID", game.ID, "players", controller.PlayerIDs())

	return game, nil
}

func (that *GameManager) Game(id string) (*ManagedGame, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	game, ok := that.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrGameNotFound, id)
	}

	return game, nil
}

// Host - opens a session on the relay for the game. Returns the session code.
func (that *GameManager) Host(ctx context.Context, id, relayURL string) (string, error) {
	game, coordinator, err := that.attach(ctx, id, relayURL)
	if err != nil {
		return "", err
	}

	code, err := coordinator.Host(ctx)
	if err != nil {
		that.detach(game, coordinator)
		return "", err
	}

	return code, nil
}

// Join - joins an existing session with the game. Returns the assigned player id.
func (that *GameManager) Join(ctx context.Context, id, relayURL, code string) (int, error) {
	game, coordinator, err := that.attach(ctx, id, relayURL)
	if err != nil {
		return 0, err
	}

	playerID, err := coordinator.Join(ctx, code)
	if err != nil {
		that.detach(game, coordinator)
		return 0, err
	}

	return playerID, nil
}

func (that *GameManager) attach(ctx context.Context, id, relayURL string) (*ManagedGame, *netsync.Coordinator, error) {
	game, err := that.Game(id)
	if err != nil {
		return nil, nil, err
	}

	game.mu.Lock()
	defer game.mu.Unlock()

	if game.coordinator != nil {
		return nil, nil, netsync.ErrAlreadyInSession
	}

	if that.dialer == nil {
		return nil, nil, apperror.ErrNotConnected
	}

	if len(that.opts.AllowedRelays) > 0 && !slices.Contains(that.opts.AllowedRelays, relayURL) {
		return nil, nil, fmt.Errorf("%w: %s", apperror.ErrRelayNotAllowed, relayURL)
	}

	transport, err := that.dialer(ctx, relayURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reach relay: %w", err)
	}

	coordinator := netsync.New(that.logger, transport, game.Controller)
	game.coordinator = coordinator
	game.Controller.SetBroadcaster(coordinator)

	return game, coordinator, nil
}

func (that *GameManager) detach(game *ManagedGame, coordinator *netsync.Coordinator) {
	game.mu.Lock()
	if game.coordinator == coordinator {
		game.coordinator = nil
		game.Controller.SetBroadcaster(nil)
	}
	game.mu.Unlock()

	if err := coordinator.Close(); err != nil {
		that.logger.Warn("failed to close session", "gameID", game.ID, "error", err)
	}
}

// Delete - stops the game and leaves its session.
func (that *GameManager) Delete(id string) error {
	that.mu.Lock()
	game, ok := that.games[id]
	delete(that.games, id)
	that.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrGameNotFound, id)
	}

	that.stop(game)

	return nil
}

func (that *GameManager) Close() {
	that.mu.Lock()
	games := that.games
	that.games = make(map[string]*ManagedGame)
	that.mu.Unlock()

	for _, game := range games {
		that.stop(game)
	}
}

func (that *GameManager) stop(game *ManagedGame) {
	game.Controller.Close()

	game.mu.Lock()
	coordinator := game.coordinator
	game.mu.Unlock()

	if coordinator != nil {
		that.detach(game, coordinator)
	}
}
