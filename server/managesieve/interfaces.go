package managesieve

import (
	"context"

	"github.com/migadu/sieve/db"
)

// DBer is an interface for database operations specific to ManageSieve
type DBer interface {
	GetAccountIDByAddress(ctx context.Context, address string) (int64, error)
	Authenticate(ctx context.Context, address string, password string) (int64, error)
	GetUserScripts(ctx context.Context, userID int64) ([]*db.SieveScript, error)
	GetActiveScript(ctx context.Context, userID int64) (*db.SieveScript, error)
	GetScriptByName(ctx context.Context, name string, userID int64) (*db.SieveScript, error)
	CreateScript(ctx context.Context, userID int64, name, script string) (*db.SieveScript, error)
	UpdateScript(ctx context.Context, scriptID, userID int64, name, script string) (*db.SieveScript, error)
	SetScriptActive(ctx context.Context, scriptID, userID int64, active bool) error
	DeleteScript(ctx context.Context, scriptID, userID int64) error
	Close()
}
