package commands

const (
	_etc = "/usr/local/etc/com.github.uhppoted"
	_var = "/usr/local/var/com.github.uhppoted"

	DEFAULT_SECRETS = _etc + "/tasks/secrets.yaml"
	DEFAULT_DB      = _var + "/tasks/tasks.db"
)
