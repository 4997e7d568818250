package extract

const standingsPrompt = `This is a screenshot of a fantasy league standings table.
Extract every row and reply with JSON only, no other text:

{"players": [{"name": "<team or manager name>", "wins": <integer>, "points": <total points, decimal>}]}

Transcribe names exactly as shown. Use the season total points column, not a weekly score.`

const matchupsPrompt = `This is a screenshot of a fantasy league scoreboard showing this week's matchups.
The league roster is: %s

Extract every matchup and reply with JSON only, no other text:

{"matchups": [["<first team>", "<second team>"]]}

Transcribe names exactly as shown, even if abbreviated. Do not guess matchups that are not visible.`

const normalizePrompt = `These fantasy league matchup pairs may use abbreviated or truncated names:
%s

The canonical roster is: %s

Map each name to its canonical roster entry and reply with JSON only, no other text:

{"matchups": [["<canonical first team>", "<canonical second team>"]]}

Keep the pairs in the same order. Every output name must appear verbatim in the roster.`
