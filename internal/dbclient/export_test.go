package dbclient

var (
	BuildPostgresDSN = buildPostgresDSN
	BuildMySQLDSN    = buildMySQLDSN
	MongoURI         = mongoURI
)
