package olake

import (
	"os"

	"github.com/flowbridge-data/oracle-logminer/logger"
	protocol "github.com/flowbridge-data/oracle-logminer/protocol"
	_ "github.com/flowbridge-data/oracle-logminer/writers/parquet" // registering local parquet writer
)

// RegisterDriver wires a connector implementation into the CLI entrypoint
// shared by every driver binary (see drivers/oracle/main.go).
func RegisterDriver(driver protocol.Driver) {
	defer func() {
		if r := recover(); r != nil {
			logger.Fatalf("panic in connector: %v", r)
		}
	}()

	// Execute the root command
	err := protocol.CreateRootCommand(true, driver).Execute()
	if err != nil {
		logger.Fatal(err)
	}

	os.Exit(0)
}
