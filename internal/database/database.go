package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ecoshop_back_end/internal/config"
)

// ScyllaManager garde une session par keyspace, chacune ouverte avec le rôle du keyspace.
type ScyllaManager struct {
	mu       sync.Mutex
	sessions map[string]*gocql.Session
	configs  map[string]config.KeyspaceConfig
	cfg      config.ScyllaConfig
	logger   *zap.Logger
}

// NewScyllaManager ouvre les sessions des keyspaces produits, utilisateurs et commandes.
func NewScyllaManager(cfg config.ScyllaConfig, logger *zap.Logger) (*ScyllaManager, error) {
	sm := &ScyllaManager{
		sessions: make(map[string]*gocql.Session),
		configs:  make(map[string]config.KeyspaceConfig),
		cfg:      cfg,
		logger:   logger,
	}
	for _, ks := range []config.KeyspaceConfig{cfg.Products, cfg.Users, cfg.Orders} {
		sm.configs[ks.Keyspace] = ks
	}

	for keyspace := range sm.configs {
		if _, err := sm.Session(keyspace); err != nil {
			sm.Close()
			return nil, fmt.Errorf("init keyspace %s: %w", keyspace, err)
		}
	}
	return sm, nil
}

func (sm *ScyllaManager) cluster(ks config.KeyspaceConfig) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(sm.cfg.Hosts...)
	cluster.Keyspace = ks.Keyspace
	cluster.Consistency = gocql.Quorum
	cluster.SerialConsistency = gocql.LocalSerial
	cluster.Timeout = sm.cfg.Timeout
	cluster.NumConns = sm.cfg.NumConns
	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = time.Second
	if ks.Role != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: ks.Role,
			Password: ks.Password,
		}
	}
	if sm.cfg.SSLEnabled {
		cluster.SslOpts = &gocql.SslOptions{
			CaPath:                 sm.cfg.SSLCAPath,
			EnableHostVerification: true,
		}
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	return cluster
}

// Session retourne la session active du keyspace et la rouvre si l'ancienne est fermée.
func (sm *ScyllaManager) Session(keyspace string) (*gocql.Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ks, ok := sm.configs[keyspace]
	if !ok {
		return nil, fmt.Errorf("keyspace %q not configured", keyspace)
	}
	if session, ok := sm.sessions[keyspace]; ok {
		if !session.Closed() {
			return session, nil
		}
		delete(sm.sessions, keyspace)
	}

	session, err := sm.cluster(ks).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("create session for %s: %w", keyspace, err)
	}
	sm.sessions[keyspace] = session
	sm.logger.Info("scylla session opened",
		zap.String("keyspace", keyspace),
		zap.String("role", ks.Role))
	return session, nil
}

func (sm *ScyllaManager) mustSession(keyspace string) *gocql.Session {
	s, err := sm.Session(keyspace)
	if err != nil {
		panic(err)
	}
	return s
}

func (sm *ScyllaManager) Products() *gocql.Session { return sm.mustSession(sm.cfg.Products.Keyspace) }
func (sm *ScyllaManager) Users() *gocql.Session    { return sm.mustSession(sm.cfg.Users.Keyspace) }
func (sm *ScyllaManager) Orders() *gocql.Session   { return sm.mustSession(sm.cfg.Orders.Keyspace) }

// Ping exécute une requête triviale sur chaque session.
func (sm *ScyllaManager) Ping(ctx context.Context) error {
	for keyspace := range sm.configs {
		s, err := sm.Session(keyspace)
		if err != nil {
			return err
		}
		if err := s.Query("SELECT now() FROM system.local").WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("ping %s: %w", keyspace, err)
		}
	}
	return nil
}

func (sm *ScyllaManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for keyspace, session := range sm.sessions {
		session.Close()
		sm.logger.Info("scylla session closed", zap.String("keyspace", keyspace))
	}
	sm.sessions = make(map[string]*gocql.Session)
}

// ConnectRedis ouvre le client Redis et vérifie la connexion.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	logger.Info("connected to redis", zap.String("addr", cfg.Host))
	return client, nil
}

// ConnectElastic retourne nil sans erreur quand aucune URL n'est configurée.
func ConnectElastic(cfg config.ElasticConfig, logger *zap.Logger) (*elasticsearch.Client, error) {
	if cfg.URL == "" {
		logger.Warn("elasticsearch not configured, product search falls back to catalog scan")
		return nil, nil
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("connect elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("connect elasticsearch: %s", res.Status())
	}

	logger.Info("connected to elasticsearch", zap.String("url", cfg.URL))
	return client, nil
}

// ConnectMinIO crée le bucket s'il manque. Retourne nil sans erreur si aucun endpoint n'est configuré.
func ConnectMinIO(ctx context.Context, cfg config.MinIOConfig, logger *zap.Logger) (*minio.Client, error) {
	if cfg.Endpoint == "" {
		logger.Warn("minio not configured, image uploads are disabled")
		return nil, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check minio bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create minio bucket: %w", err)
		}
		logger.Info("minio bucket created", zap.String("bucket", cfg.Bucket))
	}

	logger.Info("connected to minio", zap.String("endpoint", cfg.Endpoint))
	return client, nil
}
