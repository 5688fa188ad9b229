package devtool

import "github.com/OutragedMetro/manjaro-hello/internal/system"

func WithSystem(s system.System) option {
	return func(o *options) {
		o.system = s
	}
}
