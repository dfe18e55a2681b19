// Package pipeline drives one interactive fmrimap session.
//
// A Session moves through fixed phases:
//
//	Resolve → Scan → Select → Assign → Materialize → Steps
//
// Every phase owns its state explicitly on the Session and its Result; no
// package-level state is shared between phases. Operator abort (q) at any
// prompt ends the session cleanly: assignments and directories from
// completed datasets stay, the unfinished dataset leaves nothing behind.
//
// # Usage
//
//	s, err := pipeline.NewSession(pipeline.Options{
//		Config:        cfg,
//		Prompter:      prompt.NewTUI(os.Stdin, os.Stdout),
//		Out:           os.Stdout,
//		Collaborators: manifest.Build(os.Stderr, os.Stderr),
//		Logger:        logger,
//	})
//	result, err := s.Run(ctx, rootArg)
package pipeline
