// Package profile evaluates run profiles against a project's effective
// configuration.
package profile

import (
	"dario.cat/mergo"
	"github.com/sirupsen/logrus"

	"github.com/jimasp/behave-vsc-sub002/internal/config"
	"github.com/jimasp/behave-vsc-sub002/internal/project"
)

// Evaluation is the environment, tag selection and runner chosen for a run.
type Evaluation struct {
	// Profile is the name of the applied profile, empty when none applied.
	Profile       string
	Env           map[string]string
	TagExpression *string
	CustomRunner  *config.CustomRunner
}

// Evaluate applies the named profile to the project's base environment.
// An empty name selects no profile. An unknown name is logged and treated
// as no profile.
func Evaluate(cfg *project.EffectiveConfig, name string, log *logrus.Entry) (*Evaluation, error) {
	eval := &Evaluation{Env: copyEnv(cfg.Env)}
	if name == "" {
		return eval, nil
	}

	p, ok := cfg.Profile(name)
	if !ok {
		log.Warnf("run profile %q not found, running without a profile", name)
		return eval, nil
	}

	env, err := MergeEnv(cfg.Env, p.Env)
	if err != nil {
		return nil, err
	}

	eval.Profile = p.Name
	eval.Env = env
	if p.TagExpression != nil {
		expr := *p.TagExpression
		eval.TagExpression = &expr
	}
	if p.CustomRunner != nil {
		runner := *p.CustomRunner
		runner.Args = append(config.CommandLine(nil), p.CustomRunner.Args...)
		eval.CustomRunner = &runner
	}
	return eval, nil
}

// MergeEnv returns base with override applied on top. Neither input is
// modified. Keys present in both take the override's value.
func MergeEnv(base, override map[string]string) (map[string]string, error) {
	merged := copyEnv(base)
	if len(override) == 0 {
		return merged, nil
	}
	if err := mergo.Merge(&merged, override, mergo.WithOverride); err != nil {
		return nil, err
	}
	return merged, nil
}

func copyEnv(env map[string]string) map[string]string {
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}
