package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/flowbridge-data/oracle-logminer/drivers/base"
	"github.com/flowbridge-data/oracle-logminer/logger"
	"github.com/flowbridge-data/oracle-logminer/pkg/logminer"
	"github.com/flowbridge-data/oracle-logminer/protocol"
	"github.com/flowbridge-data/oracle-logminer/types"
)

const discoverTimeout = 5 * time.Minute

// Oracle is the connector host's Driver implementation: it owns the
// physical session, the discovered stream cache inherited from base.Driver,
// and the CDC configuration used to build a logminer.Miner on RunChangeStream.
type Oracle struct {
	*base.Driver
	config    *Config
	cdcConfig CDC
	session   *oracleSession
	schema    *dictionarySchema
}

func (o *Oracle) Type() string {
	return "Oracle"
}

func (o *Oracle) GetConfigRef() protocol.Config {
	o.config = &Config{}
	return o.config
}

func (o *Oracle) Spec() any {
	return Config{}
}

func (o *Oracle) Setup() error {
	if err := o.config.Validate(); err != nil {
		return fmt.Errorf("failed to validate config: %s", err)
	}
	if err := o.cdcConfig.Validate(); err != nil {
		return fmt.Errorf("failed to validate cdc config: %s", err)
	}

	session, err := newOracleSession(o.config)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if _, err := session.CurrentScn(ctx); err != nil {
		return fmt.Errorf("failed to connect to oracle: %s", err)
	}

	if err := verifySupplementalLogging(ctx, session.db); err != nil {
		return err
	}

	o.session = session
	o.schema = newDictionarySchema(session.db)
	o.CDCSupport = true

	return nil
}

func (o *Oracle) Check() error {
	return o.Setup()
}

func (o *Oracle) CloseConnection() {
	if o.session != nil {
		if err := o.session.Close(); err != nil {
			logger.Errorf("failed to close oracle session: %s", err)
		}
	}
}

func (o *Oracle) StateType() types.StateType {
	return types.GlobalType
}

func (o *Oracle) SetupState(state *types.State) {
	state.Type = o.StateType()
	o.State = state
}

func (o *Oracle) Discover(discoverSchema bool) ([]*types.Stream, error) {
	streams := o.GetStreams()
	if len(streams) != 0 {
		return streams, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), discoverTimeout)
	defer cancel()

	tables, err := o.schema.ListMonitoredTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %s", err)
	}
	if len(tables) == 0 {
		logger.Warn("no tables found")
		return streams, nil
	}

	for _, table := range tables {
		stream, err := o.schema.populateStream(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("failed to populate stream %s.%s: %s", table.Owner, table.Name, err)
		}
		stream.SyncMode = types.CDC
		o.AddStream(stream)
	}

	return o.GetStreams(), nil
}

func (o *Oracle) Read(pool *protocol.WriterPool, stream protocol.Stream) error {
	if stream.GetSyncMode() == types.CDC {
		return o.RunChangeStream(pool, stream)
	}
	return fmt.Errorf("sync mode %s not supported, only cdc is supported", stream.GetSyncMode())
}

// maxScnForSession resolves the open-ended "current redo" sentinel for the
// connected database version. 19.6 is assumed absent a version probe; a
// production build would query V$VERSION and call
// logminer.MaxSentinelForVersion directly.
func (o *Oracle) maxScnForSession() logminer.SCN {
	return logminer.MaxSCN19_6
}
