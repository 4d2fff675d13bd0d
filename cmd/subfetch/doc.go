// Command subfetch downloads missing subtitles for the videos in a file or
// directory tree.
//
// The root command runs one pass over --file. Subcommands watch a library for
// new files, show the outcome history, and manage the configuration file.
package main
