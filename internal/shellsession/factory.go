package shellsession

import (
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"strconv"
	"syscall"
)

// ShellFactoryConfig is the static part of a DefaultFactory: the shell
// binary to launch and, optionally, a fixed uid to run it as. These are
// the only sandboxing knobs spec §1's Non-goals allow ("optionally
// launching the child shell under a chosen user id").
type ShellFactoryConfig struct {
	ShellPath string
	ShellArgs []string

	// RunAsUID is the server-wide default uid new sessions launch under
	// when a start call's own "user" param does not override it. Zero
	// means "do not change uid" (config.RunAsUID).
	RunAsUID int
}

// DefaultFactory builds a StartFactory that launches cfg.ShellPath with
// an optional per-call working directory, environment additions, and
// run-as-user override taken from the start params. The manager itself
// stays oblivious to all of this (§3).
func DefaultFactory(cfg ShellFactoryConfig) StartFactory {
	return func(params map[string]any) (*exec.Cmd, map[string]string, error) {
		args := cfg.ShellArgs
		cmd := exec.Command(cfg.ShellPath, args...)
		cmd.Env = os.Environ()

		metadata := map[string]string{
			"shell": cfg.ShellPath,
		}

		if wd, ok := params["workdir"].(string); ok && wd != "" {
			cmd.Dir = wd
			metadata["workdir"] = wd
		}

		if envAny, ok := params["env"].(map[string]any); ok {
			for k, v := range envAny {
				if s, ok := v.(string); ok {
					cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, s))
				}
			}
		}

		if u, ok := params["user"].(string); ok && u != "" {
			uid, gid, err := resolveUser(u)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid user %q: %w", u, err)
			}
			cmd.SysProcAttr = &syscall.SysProcAttr{
				Credential: &syscall.Credential{Uid: uid, Gid: gid},
			}
			metadata["user"] = u
		} else if cfg.RunAsUID != 0 {
			uid, gid, err := resolveUID(cfg.RunAsUID)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid run_as_uid %d: %w", cfg.RunAsUID, err)
			}
			cmd.SysProcAttr = &syscall.SysProcAttr{
				Credential: &syscall.Credential{Uid: uid, Gid: gid},
			}
			metadata["user"] = strconv.Itoa(cfg.RunAsUID)
		}

		return cmd, metadata, nil
	}
}

func resolveUser(name string) (uint32, uint32, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return 0, 0, err
	}
	uid, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return 0, 0, err
	}
	gid, err := strconv.ParseUint(u.Gid, 10, 32)
	if err != nil {
		return 0, 0, err
	}
	return uint32(uid), uint32(gid), nil
}

func resolveUID(uid int) (uint32, uint32, error) {
	u, err := user.LookupId(strconv.Itoa(uid))
	if err != nil {
		return 0, 0, err
	}
	gid, err := strconv.ParseUint(u.Gid, 10, 32)
	if err != nil {
		return 0, 0, err
	}
	return uint32(uid), uint32(gid), nil
}
