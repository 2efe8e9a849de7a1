package driver

import (
	"fmt"

	"github.com/flowbridge-data/oracle-logminer/pkg/logminer"
	"github.com/flowbridge-data/oracle-logminer/utils"
)

// Config holds the connection parameters for the Oracle source. It mirrors
// the shape of the other drivers' Config: plain fields validated once by
// Validate, with the parsed connection state cached on the struct.
type Config struct {
	Host        string `json:"host" validate:"required"`
	Port        int    `json:"port" validate:"required"`
	ServiceName string `json:"service_name" validate:"required"`
	Username    string `json:"username" validate:"required"`
	Password    string `json:"password" validate:"required"`
	MaxThreads  int    `json:"max_threads"`
	BatchSize   int    `json:"reader_batch_size"`
}

// CDC holds the LogMiner-specific knobs, translated into a logminer.Config
// by AsLogMinerConfig. It is not loaded from the connector configuration:
// the driver's CDC value carries the defaults that Validate fills in.
type CDC struct {
	Strategy                  string `json:"log_mining_strategy"`
	ContinuousMine            bool   `json:"log_mining_continuous_mine"`
	DefaultBatchSize          int64  `json:"default_batch_size"`
	MinBatchSize              int64  `json:"min_batch_size"`
	MaxBatchSize              int64  `json:"max_batch_size"`
	BatchSizeStep             int64  `json:"batch_size_step"`
	MinSleepMillis            int64  `json:"min_sleep_ms"`
	MaxSleepMillis            int64  `json:"max_sleep_ms"`
	SleepStep                 int64  `json:"sleep_step_ms"`
	MaxQueueSize              int    `json:"max_queue_size"`
	PollIntervalMillis        int64  `json:"poll_interval_ms"`
	TransactionRetentionHours int    `json:"log_mining_transaction_retention_hours"`
	ArchiveLogRetentionHours  int    `json:"log_mining_archive_log_retention_hours"`

	// RacPeerHosts lists the other instance hosts of a RAC cluster. Leave
	// empty on single-instance deployments.
	RacPeerHosts []string `json:"rac_peer_hosts"`
}

func (c *Config) Validate() error {
	if err := utils.Validate(c); err != nil {
		return err
	}

	if c.MaxThreads <= 0 {
		c.MaxThreads = 3
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10000
	}

	return nil
}

func (c *CDC) Validate() error {
	if c.Strategy == "" {
		c.Strategy = string(logminer.StrategyOnlineCatalog)
	}
	if c.Strategy != string(logminer.StrategyOnlineCatalog) && c.Strategy != string(logminer.StrategyCatalogInRedo) {
		return fmt.Errorf("invalid log_mining_strategy: %s", c.Strategy)
	}

	defaults := []struct {
		field *int64
		value int64
	}{
		{&c.DefaultBatchSize, 50000},
		{&c.MinBatchSize, 1000},
		{&c.MaxBatchSize, 200000},
		{&c.BatchSizeStep, 5000},
		{&c.MaxSleepMillis, 3000},
		{&c.SleepStep, 200},
		{&c.PollIntervalMillis, 1000},
	}
	for _, d := range defaults {
		if *d.field <= 0 {
			*d.field = d.value
		}
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = 10000
	}
	if c.TransactionRetentionHours <= 0 {
		c.TransactionRetentionHours = 4
	}
	if c.ArchiveLogRetentionHours <= 0 {
		c.ArchiveLogRetentionHours = 24
	}

	return nil
}

// AsLogMinerConfig translates the operator-facing CDC knobs into the
// buffer/controller/miner's Config type.
func (c *CDC) AsLogMinerConfig() logminer.Config {
	return logminer.Config{
		Strategy:                  logminer.MiningStrategy(c.Strategy),
		ContinuousMine:            c.ContinuousMine,
		DefaultBatchSize:          c.DefaultBatchSize,
		MinBatchSize:              c.MinBatchSize,
		MaxBatchSize:              c.MaxBatchSize,
		BatchSizeStep:             c.BatchSizeStep,
		MinSleepMillis:            c.MinSleepMillis,
		MaxSleepMillis:            c.MaxSleepMillis,
		SleepStep:                 c.SleepStep,
		MaxQueueSize:              c.MaxQueueSize,
		PollIntervalMillis:        c.PollIntervalMillis,
		TransactionRetentionHours: c.TransactionRetentionHours,
		ArchiveLogRetentionHours:  c.ArchiveLogRetentionHours,
		RacPeerHosts:              c.RacPeerHosts,
	}
}
