package main

import (
	"github.com/flowbridge-data/oracle-logminer"
	"github.com/flowbridge-data/oracle-logminer/drivers/base"
	driver "github.com/flowbridge-data/oracle-logminer/drivers/oracle/internal"
	"github.com/flowbridge-data/oracle-logminer/protocol"
	_ "github.com/sijms/go-ora/v2"
)

func main() {
	driver := &driver.Oracle{
		Driver: base.NewBase(),
	}
	_ = protocol.ChangeStreamDriver(driver)

	defer driver.CloseConnection()
	olake.RegisterDriver(driver)
}
