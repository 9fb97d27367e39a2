package sdk

import (
	"context"
	"sync"

	"github.com/etopay/sigilwallet/internal/sdkconfig"
	"github.com/etopay/sigilwallet/internal/sdklog"
	"github.com/etopay/sigilwallet/internal/sharetransport"
	"github.com/etopay/sigilwallet/internal/userrepo"
	"github.com/etopay/sigilwallet/internal/walletmanager"
	"github.com/etopay/sigilwallet/pkg/sigilerr"
)

// SDK is the façade object (C11): one reader/writer lock around the
// state bag {config, active_user, active_network, access_token,
// repository} (spec §5), exposing §4.11's operation table as methods.
// A host application constructs exactly one per process (or one per
// logical session, if it wants independent active users/networks) via
// New, then drives every wallet operation through it.
type SDK struct {
	mu sync.RWMutex

	config        *sdkconfig.Config
	activeUser    string
	activeNetwork string
	accessToken   string
	repo          userrepo.Repository

	manager   *walletmanager.Manager
	transport *sharetransport.Client
	log       *sdklog.Logger
}

// New builds an SDK with no active config/user/network; the host must
// call SetConfig, InitUser, and SetNetwork before any wallet operation
// will succeed.
func New(repo userrepo.Repository, log *sdklog.Logger) *SDK {
	if log == nil {
		log = sdklog.Null()
	}
	return &SDK{repo: repo, log: log}
}

// SetConfig installs cfg as the active configuration, rebuilding the
// backend transport and wallet manager against it. Rejects an invalid
// config (§4.11: MissingConfig).
func (s *SDK) SetConfig(cfg *sdkconfig.Config) error {
	if cfg == nil {
		return sigilerr.ErrMissingConfig
	}
	if err := cfg.Validate(); err != nil {
		return sigilerr.Wrap(sigilerr.ErrMissingConfig, "%v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.config = cfg
	s.transport = sharetransport.NewClient(cfg.Backend.BaseURL, cfg.Backend.AppName, nil)
	s.manager = walletmanager.New(s.repo, s.transport, s.log)
	return nil
}

// SetNetwork selects the active network by its configured key. The
// key must name an entry in the active config's Networks map.
func (s *SDK) SetNetwork(networkKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config == nil {
		return sigilerr.ErrMissingConfig
	}
	if _, ok := s.config.Networks[networkKey]; !ok {
		return sigilerr.WithDetails(sigilerr.ErrMissingNetwork, map[string]string{"network_key": networkKey})
	}
	s.activeNetwork = networkKey
	return nil
}

// InitUser selects the active username; every subsequent operation
// acts on this user's repository record until changed.
func (s *SDK) InitUser(username string) error {
	if username == "" {
		return sigilerr.ErrUserNotInit
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeUser = username
	return nil
}

// SetAccessToken installs the bearer token used for backend calls
// (share up/download, address upload). An empty token is equivalent to
// having none: backend-dependent paths fall back to local-only
// behaviour or fail with MissingAccessToken where the operation has no
// local fallback.
func (s *SDK) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
}

// ClearAccessToken drops the active access token, e.g. on sign-out.
func (s *SDK) ClearAccessToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
}

// snapshot is the view of the state bag an operation needs before it
// can do any I/O; every §4.11 method builds one (via buildSnapshot or
// requireNetwork) under whichever lock it holds, to validate
// preconditions in one place.
type snapshot struct {
	config      *sdkconfig.Config
	username    string
	networkKey  string
	networkCfg  sdkconfig.NetworkConfig
	accessToken string
	repo        userrepo.Repository
	manager     *walletmanager.Manager
	transport   *sharetransport.Client
	log         *sdklog.Logger
}

// buildSnapshot assembles a snapshot from current state without
// locking; callers hold either the read or write lock already.
func (s *SDK) buildSnapshot() (snapshot, error) {
	if s.config == nil {
		return snapshot{}, sigilerr.ErrMissingConfig
	}
	if s.activeUser == "" {
		return snapshot{}, sigilerr.ErrUserNotInit
	}
	if s.repo == nil {
		return snapshot{}, sigilerr.ErrUserRepoNotInit
	}

	var netCfg sdkconfig.NetworkConfig
	if s.activeNetwork != "" {
		cfg, ok := s.config.Networks[s.activeNetwork]
		if !ok {
			return snapshot{}, sigilerr.ErrMissingNetwork
		}
		netCfg = cfg
	}

	return snapshot{
		config:      s.config,
		username:    s.activeUser,
		networkKey:  s.activeNetwork,
		networkCfg:  netCfg,
		accessToken: s.accessToken,
		repo:        s.repo,
		manager:     s.manager,
		transport:   s.transport,
		log:         s.log,
	}, nil
}

// borrowSigner reconstructs the mnemonic under pin and materialises a
// WalletBorrow (§4.12) for the active network. Callers must Close it
// once done; it must never be retained past the call that requested it.
func (snap snapshot) borrowSigner(ctx context.Context, pin []byte) (*WalletBorrow, error) {
	mnemonicSecret, err := snap.manager.Reconstruct(ctx, snap.username, pin, snap.accessToken)
	if err != nil {
		return nil, err
	}
	defer mnemonicSecret.Destroy()

	return materialize(snap.networkCfg, string(mnemonicSecret.Bytes()), snap.log)
}
