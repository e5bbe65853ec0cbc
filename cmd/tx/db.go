package main

import (
	"fmt"

	"github.com/bedecarroll/tx/internal/txerr"
)

// DBCmd implements `db reset --yes` (spec.md §6).
type DBCmd struct {
	Reset DBResetCmd `cmd:"" help:"Delete and recreate the local database."`
}

type DBResetCmd struct {
	Yes bool `help:"Required confirmation; the command refuses to run without it."`
}

func (c *DBResetCmd) Run(app *App) error {
	if !c.Yes {
		return txerr.New(txerr.KindConfiguration, "cli.db_reset", "", fmt.Errorf("refusing to reset the database without --yes"))
	}
	if err := app.resetDatabase(); err != nil {
		return err
	}
	fmt.Println("database reset")
	return nil
}
