// Package icons lists the monster icons quests and avatars can use.
package icons

import (
	"context"
	"io"

	"tableflip.dev/questlog/pkg/icons"
	"tableflip.dev/questlog/pkg/printers"
)

type Icons struct {
	JSON    bool
	Out     io.Writer
	Catalog *icons.Catalog
}

func (n *Icons) Do(ctx context.Context) error {
	list := n.Catalog.List(ctx)
	pp := printers.PrettyPrint{Out: n.Out}
	if n.JSON {
		type row struct {
			icons.Icon
			URL string `json:"url"`
		}
		rows := make([]row, 0, len(list))
		for _, i := range list {
			rows = append(rows, row{Icon: i, URL: n.Catalog.AssetURL(i.FileName)})
		}
		return printers.JSON(pp.Writer(), rows)
	}
	pp.Icons(list, n.Catalog.AssetURL)
	return nil
}
