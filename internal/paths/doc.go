// Package paths resolves the per-user locations localvcs reads and writes.
//
// Locations follow the XDG Base Directory conventions through
// github.com/adrg/xdg, which also maps them to the native directories on
// macOS and Windows:
//
//	paths.ConfigFile()      // ~/.config/localvcs/config.yaml
//	paths.DefaultStoreDir() // ~/.local/share/localvcs/backups
//	paths.LogDir()          // ~/.local/state/localvcs
package paths
