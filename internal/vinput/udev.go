package vinput

import (
	"github.com/jochenvg/go-udev"
	"go.uber.org/zap"
)

// logEventNodes resolves the /dev/input/eventN nodes udev assigned to the
// virtual devices, so logs point at something the user can inspect with
// evtest.
func (s *Sink) logEventNodes() {
	nodes := map[string]string{}
	u := &udev.Udev{}
	e := u.NewEnumerate()
	if err := e.AddMatchSubsystem("input"); err != nil {
		s.log.Debug("udev enumerate failed", zap.Error(err))
		return
	}
	devices, err := e.Devices()
	if err != nil {
		s.log.Debug("udev enumerate failed", zap.Error(err))
		return
	}
	for _, d := range devices {
		parent := d.Parent()
		if parent == nil {
			continue
		}
		name := parent.SysattrValue("name")
		if name != s.keyboard.name && name != s.mouse.name {
			continue
		}
		if node := d.Devnode(); node != "" {
			nodes[name] = node
		}
	}
	for name, node := range nodes {
		s.log.Info("virtual input device created",
			zap.String("name", name),
			zap.String("node", node),
		)
	}
}
