package main

import "context"

type PlanCmd struct{}

func (c *PlanCmd) Run(rt *runtime) error {
	ctx := context.Background()
	d, err := rt.deployer(ctx)
	if err != nil {
		return err
	}

	plan, err := d.Plan(ctx)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(plan))
	for _, a := range plan {
		status := string(a.Status)
		if status == "" {
			status = "-"
		}
		rows = append(rows, []string{a.StackName, a.Action, status})
	}

	rep := cliReporter{}
	rep.Section("deploy plan")
	rep.Table([]string{"STACK", "ACTION", "CURRENT STATUS"}, rows)
	return nil
}
