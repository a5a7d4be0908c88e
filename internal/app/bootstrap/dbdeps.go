// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/teachdrive/teachdrive/internal/app/system/blob"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// This struct is created in ConnectDB and passed to subsequent lifecycle
// hooks: EnsureSchema, Startup, BuildHandler, and Shutdown. The two backing
// stores here are the two views of the same tree: MongoDB holds the
// metadata rows, Blobs holds the physical directories and bytes.
type DBDeps struct {
	// MongoDB client and database
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Blobs is the physical directory tree under the configured blob root.
	Blobs *blob.Store
}
