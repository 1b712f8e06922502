package platform

import (
	"context"

	"github.com/edgectl/edgectl/pkg/runner"
)

// NetshFirewall manages inbound rules through the advanced firewall
// CLI.
type NetshFirewall struct {
	runner *runner.Runner
}

// NewNetshFirewall creates the firewall rule store.
func NewNetshFirewall(r *runner.Runner) *NetshFirewall {
	return &NetshFirewall{runner: r}
}

func (f *NetshFirewall) AddRule(ctx context.Context, rule FirewallRule) error {
	_, err := f.runner.Run(ctx, runner.Command{
		Path: "netsh.exe",
		Args: []string{
			"advfirewall", "firewall", "add", "rule",
			"name=" + rule.Name,
			"dir=in",
			"action=allow",
			"program=" + rule.Program,
			"protocol=tcp",
			"localport=" + rule.PortRange,
		},
	})
	return err
}

// RemoveRule deletes a rule and tolerates its absence.
func (f *NetshFirewall) RemoveRule(ctx context.Context, name string) error {
	_, err := f.runner.Run(ctx, runner.Command{
		Path:         "netsh.exe",
		Args:         []string{"advfirewall", "firewall", "delete", "rule", "name=" + name},
		AllowFailure: true,
	})
	return err
}
